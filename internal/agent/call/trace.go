package call

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	tracePrefix     = "[verbose]"
	truncatedMarker = "... [truncated]"

	// Console limits. The log file always gets everything.
	consoleMaxBytes      = 16 * 1024
	consoleToolLines     = 3
	consolePromptHistory = 6
)

// traceStyle selects how a trace line is rendered.
type traceStyle int

const (
	stylePlain traceStyle = iota
	styleDim
	stylePrompt
	styleOutput
	styleToolCall
	styleToolResult
	styleError
)

var traceColors = map[traceStyle]lipgloss.Color{
	stylePrompt:     "6",
	styleOutput:     "5",
	styleToolCall:   "3",
	styleToolResult: "2",
	styleError:      "1",
}

// traceSink is one destination. A nil renderer writes plain text.
type traceSink struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	full     bool
}

// tracer writes the verbose trace of one call to the console (when verbose)
// and to the log file. A tracer with no sinks discards everything.
type tracer struct {
	prefix string
	sinks  []traceSink
}

func newTracer(opts RunOptions) tracer {
	t := tracer{prefix: opts.LogPrefix}
	if opts.Verbose && opts.VerboseWriter != nil {
		sink := traceSink{w: opts.VerboseWriter}
		if !opts.NoColor {
			sink.renderer = lipgloss.NewRenderer(opts.VerboseWriter)
		}
		t.sinks = append(t.sinks, sink)
	}
	if opts.VerboseLogWriter != nil {
		t.sinks = append(t.sinks, traceSink{w: opts.VerboseLogWriter, full: true})
	}
	return t
}

func (t tracer) enabled() bool { return len(t.sinks) > 0 }

// line writes a single styled line to every sink.
func (t tracer) line(style traceStyle, text string) {
	for _, sink := range t.sinks {
		t.write(sink, style, text)
	}
}

// block writes a header followed by a body. body receives the sink's full
// flag so console output can be shortened.
func (t tracer) block(header string, headerStyle, bodyStyle traceStyle, body func(full bool) string) {
	for _, sink := range t.sinks {
		t.write(sink, headerStyle, header)
		text := body(sink.full)
		if !sink.full && len(text) > consoleMaxBytes {
			text = text[:consoleMaxBytes-len(truncatedMarker)-1] + "\n" + truncatedMarker
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, l := range strings.Split(text, "\n") {
			t.write(sink, bodyStyle, l)
		}
	}
}

func (t tracer) write(sink traceSink, style traceStyle, text string) {
	if t.prefix != "" {
		text = "[" + t.prefix + "] " + text
	}
	if sink.renderer != nil && style != stylePlain {
		s := sink.renderer.NewStyle().TabWidth(lipgloss.NoTabConversion)
		if style == styleDim {
			s = s.Faint(true).Foreground(lipgloss.Color("8"))
		} else {
			s = s.Bold(true).Foreground(traceColors[style])
		}
		text = s.Render(text)
	}
	fmt.Fprintf(sink.w, "%s %s\n", tracePrefix, text)
}

// firstLines keeps at most n lines of value.
func firstLines(value string, n int) string {
	lines := strings.Split(value, "\n")
	if len(lines) <= n {
		return value
	}
	return strings.Join(lines[:n], "\n") + "\n" + truncatedMarker
}

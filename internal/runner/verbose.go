package runner

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const verbosePrefix = "[verbose]"

type verboseStyle int

const (
	styleDefault verboseStyle = iota
	styleTask
	styleMetrics
	styleError
)

var verboseColors = map[verboseStyle]lipgloss.Color{
	styleTask:    lipgloss.Color("4"),
	styleMetrics: lipgloss.Color("2"),
	styleError:   lipgloss.Color("1"),
}

// verboseLog writes run-level progress lines. Console lines are styled when
// the console is a terminal; the log file always gets plain text.
type verboseLog struct {
	enabled bool
	console io.Writer
	file    io.Writer
	noColor bool
}

func newVerboseLog(enabled bool, console, file io.Writer, noColor bool) verboseLog {
	return verboseLog{enabled: enabled, console: console, file: file, noColor: noColor}
}

func (l verboseLog) printf(style verboseStyle, format string, args ...any) {
	if !l.enabled {
		return
	}
	line := fmt.Sprintf(format, args...)
	if l.console != nil {
		fmt.Fprintf(l.console, "%s %s\n", l.render(styleDefault, verbosePrefix, true), l.render(style, line, false))
	}
	if l.file != nil && l.file != l.console {
		fmt.Fprintf(l.file, "%s %s\n", verbosePrefix, line)
	}
}

func (l verboseLog) render(style verboseStyle, text string, faint bool) string {
	if l.noColor || (style == styleDefault && !faint) {
		return text
	}
	s := lipgloss.NewRenderer(l.console).NewStyle().TabWidth(lipgloss.NoTabConversion)
	if faint {
		return s.Faint(true).Render(text)
	}
	return s.Bold(true).Foreground(verboseColors[style]).Render(text)
}

// syncWriter serializes writes from concurrent trials.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// shareWriters guards the verbose writers once more than one trial runs at a time.
func shareWriters(workers int, writers ...*io.Writer) {
	if workers <= 1 {
		return
	}
	for _, w := range writers {
		if *w != nil {
			*w = &syncWriter{w: *w}
		}
	}
}

// formatToolCounts renders per-tool call counts as "name=n" pairs sorted by name.
func formatToolCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%d", name, counts[name])
	}
	return b.String()
}

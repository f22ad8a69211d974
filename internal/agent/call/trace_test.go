package call

import (
	"bytes"
	"strings"
	"testing"
)

func TestTraceShortensConsoleOnly(t *testing.T) {
	var console, logFile bytes.Buffer
	trace := newTracer(RunOptions{Verbose: true, VerboseWriter: &console, VerboseLogWriter: &logFile, NoColor: true})
	output := "1\n2\n3\n4\n5"
	trace.block("Tool result", styleToolResult, stylePlain, func(full bool) string {
		if full {
			return output
		}
		return firstLines(output, consoleToolLines)
	})
	if strings.Contains(console.String(), "[verbose] 4") || !strings.Contains(console.String(), truncatedMarker) {
		t.Fatalf("expected console output cut after 3 lines:\n%s", console.String())
	}
	if !strings.Contains(logFile.String(), "[verbose] 5") {
		t.Fatalf("expected full output in log file:\n%s", logFile.String())
	}
}

func TestTraceCapsConsoleBytes(t *testing.T) {
	var console bytes.Buffer
	trace := newTracer(RunOptions{Verbose: true, VerboseWriter: &console, NoColor: true})
	trace.block("LLM output", styleOutput, stylePlain, func(bool) string { return strings.Repeat("x", 2*consoleMaxBytes) })
	if console.Len() > consoleMaxBytes+200 {
		t.Fatalf("expected console output capped, got %d bytes", console.Len())
	}
	if !strings.Contains(console.String(), truncatedMarker) {
		t.Fatalf("expected truncation marker")
	}
}

func TestTraceWithoutSinksIsDisabled(t *testing.T) {
	var console bytes.Buffer
	trace := newTracer(RunOptions{VerboseWriter: &console})
	if trace.enabled() {
		t.Fatalf("expected tracer disabled when not verbose")
	}
	trace.line(styleError, "ignored")
	if console.Len() != 0 {
		t.Fatalf("expected no output, got %q", console.String())
	}
}

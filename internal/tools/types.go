package tools

import "time"

// CallResult captures a tool execution outcome.
type CallResult struct {
	Tool        string
	Output      string
	OutputBytes int
	StartedAt   time.Time
	FinishedAt  time.Time
	Duration    time.Duration
	Error       string
}

// ErrorResult builds a CallResult describing a failed tool call.
func ErrorResult(tool, message string, now time.Time) CallResult {
	output := "error: " + message
	return CallResult{
		Tool:        tool,
		Output:      output,
		OutputBytes: len(output),
		StartedAt:   now,
		FinishedAt:  now,
		Error:       message,
	}
}

package call

import (
	"errors"
	"io"
	"time"

	"toolcount/internal/agent"
)

// DefaultMaxSteps caps model round trips when RunLimits.MaxSteps is unset.
const DefaultMaxSteps = 150

var (
	// ErrLoopCapExceeded signals the model kept requesting tools past the step cap.
	ErrLoopCapExceeded = errors.New("loop_cap_exceeded")
	// ErrBudgetExceeded signals that a run exceeded its time or token budget.
	ErrBudgetExceeded = errors.New("budget_exceeded")
)

// RunLimits bounds steps, time, and token usage.
// A zero MaxSteps means DefaultMaxSteps; the step cap is never disabled.
type RunLimits struct {
	MaxSteps   int
	MaxSeconds time.Duration
	MaxTokens  int
}

// RunOptions configures per-run behavior and logging.
type RunOptions struct {
	TokenCounter     agent.TokenCounter
	Limits           RunLimits
	Verbose          bool
	VerboseWriter    io.Writer
	VerboseLogWriter io.Writer
	NoColor          bool
	// LogPrefix is prepended to every verbose line, e.g. "trial 3/10".
	LogPrefix string
}

// RunMetrics captures execution effort for a run.
type RunMetrics struct {
	ToolCalls map[string]int
	WallTime  time.Duration
	Tokens    int
	Steps     int
}

// CallResult captures the terminal output and metrics.
type CallResult struct {
	Output        string
	Metrics       RunMetrics
	FailureReason string
}

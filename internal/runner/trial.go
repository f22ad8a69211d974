package runner

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"toolcount/internal/agent"
	"toolcount/internal/agent/call"
	"toolcount/internal/tools"
)

// TrialPrompt is the user request sent at the start of every trial.
const TrialPrompt = "Please call the tool a random number of times between 1-100, then tell me the total count."

// Unreported is shown in place of a reported count the answer did not contain.
const Unreported = "unreported"

var newTrialID = uuid.NewString

// Trial is the outcome of one experiment.
type Trial struct {
	ID              string  `json:"id"`
	Index           int     `json:"index"`
	Model           string  `json:"model"`
	ActualCount     int     `json:"actual_count"`
	ReportedCount   *int    `json:"reported_count"`
	Matched         bool    `json:"matched"`
	Answer          string  `json:"answer,omitempty"`
	Steps           int     `json:"steps"`
	Tokens          int     `json:"tokens"`
	WallTimeSeconds float64 `json:"wall_time_seconds"`
	FailureReason   string  `json:"failure_reason,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// Failed reports whether the model invocation for the trial failed.
func (t Trial) Failed() bool {
	return t.Error != ""
}

// Reported renders the reported count or Unreported.
func (t Trial) Reported() string {
	if t.ReportedCount == nil {
		return Unreported
	}
	return strconv.Itoa(*t.ReportedCount)
}

// TrialConfig carries everything one trial needs. Nothing is read from the
// environment or package state.
type TrialConfig struct {
	Provider     agent.Provider
	Model        agent.ModelRef
	ToolName     string
	MaxSteps     int
	MaxSeconds   time.Duration
	// MaxTokens stops the trial once TokenCounter reports more history
	// tokens; it has no effect without a TokenCounter.
	MaxTokens    int
	TokenCounter agent.TokenCounter

	Verbose          bool
	VerboseWriter    io.Writer
	VerboseLogWriter io.Writer
	NoColor          bool
	LogPrefix        string
}

// InvocationError reports a trial whose model interaction failed.
type InvocationError struct {
	Index       int
	Model       string
	ActualCount int
	Err         error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("trial %d (%s) failed after %d tool calls: %v", e.Index+1, e.Model, e.ActualCount, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// TrialInstructions returns the system instructions for a trial.
func TrialInstructions(toolName string) string {
	var builder strings.Builder
	builder.WriteString("You are an agent whose job is to call the '")
	builder.WriteString(toolName)
	builder.WriteString("' tool a random number of times (between 1 and 100).\n\n")
	builder.WriteString("After calling the tool the chosen number of times, respond with the total number of calls made.\n\n")
	builder.WriteString("You should:\n")
	builder.WriteString("1. Decide on a random number between 1-100 (you can pick any number in this range)\n")
	builder.WriteString("2. Call the ")
	builder.WriteString(toolName)
	builder.WriteString(" tool that many times\n")
	builder.WriteString("3. Return the final count as an integer\n\n")
	builder.WriteString("End your final answer with:\n")
	builder.WriteString("<count>N</count>\n")
	builder.WriteString("where N is the number of times you called the tool. Do not add any text after </count>.\n")
	return builder.String()
}

// RunTrial runs one experiment against cfg.Provider with a fresh counter.
// It always returns a Trial; a failed model interaction is also returned as
// an *InvocationError and the trial never counts as a match.
func RunTrial(ctx context.Context, index int, cfg TrialConfig) (Trial, error) {
	return runTrial(ctx, index, cfg, nil)
}

func runTrial(ctx context.Context, index int, cfg TrialConfig, wrap func(agent.ToolExecutor) agent.ToolExecutor) (Trial, error) {
	toolName := strings.TrimSpace(cfg.ToolName)
	if toolName == "" {
		toolName = tools.DefaultToolName
	}
	trial := Trial{ID: newTrialID(), Index: index, Model: cfg.Model.String()}
	fail := func(err error, reason string, actual int) (Trial, error) {
		trial.ActualCount = actual
		trial.Error = err.Error()
		trial.FailureReason = reason
		return trial, &InvocationError{Index: index, Model: trial.Model, ActualCount: actual, Err: err}
	}
	if cfg.Provider == nil {
		return fail(fmt.Errorf("provider is required"), "runtime_error", 0)
	}

	counter := tools.NewCounter()
	var executor agent.ToolExecutor = agent.CounterExecutor{Counter: counter, ToolName: toolName}
	if wrap != nil {
		executor = wrap(executor)
	}
	session, err := agent.StartSession(agent.SessionConfig{
		Provider:          cfg.Model.Provider,
		Model:             cfg.Model.Name,
		Instructions:      TrialInstructions(toolName),
		Tools:             []agent.ToolDefinition{agent.CounterToolDefinition(toolName)},
		ParallelToolCalls: true,
	})
	if err != nil {
		return fail(fmt.Errorf("start session: %w", err), "runtime_error", 0)
	}

	vlog := newVerboseLog(cfg.Verbose, cfg.VerboseWriter, cfg.VerboseLogWriter, cfg.NoColor)
	vlog.printf(styleTask, "%s model=%s tool=%s", prefixOr(cfg.LogPrefix, "trial"), trial.Model, toolName)
	result, runErr := call.RunCall(ctx, session, cfg.Provider, executor, TrialPrompt, call.RunOptions{
		TokenCounter:     cfg.TokenCounter,
		Limits:           call.RunLimits{MaxSteps: cfg.MaxSteps, MaxSeconds: cfg.MaxSeconds, MaxTokens: cfg.MaxTokens},
		Verbose:          cfg.Verbose,
		VerboseWriter:    cfg.VerboseWriter,
		VerboseLogWriter: cfg.VerboseLogWriter,
		NoColor:          cfg.NoColor,
		LogPrefix:        cfg.LogPrefix,
	})
	metrics := result.Metrics
	trial.Steps = metrics.Steps
	trial.Tokens = metrics.Tokens
	trial.WallTimeSeconds = metrics.WallTime.Seconds()
	if runErr != nil {
		vlog.printf(styleError, "%s error=%v actual=%d", prefixOr(cfg.LogPrefix, "trial"), runErr, counter.Count())
		return fail(runErr, result.FailureReason, counter.Count())
	}

	trial.ActualCount = counter.Count()
	trial.Answer = result.Output
	if reported, ok := ParseReportedCount(result.Output); ok {
		trial.ReportedCount = &reported
		trial.Matched = reported == trial.ActualCount
	}
	vlog.printf(styleMetrics, "%s reported=%s actual=%d matched=%t steps=%d tokens=%d wall_time=%s tool_calls=%s",
		prefixOr(cfg.LogPrefix, "trial"), trial.Reported(), trial.ActualCount, trial.Matched,
		metrics.Steps, metrics.Tokens, metrics.WallTime, formatToolCounts(metrics.ToolCalls))
	return trial, nil
}

func prefixOr(prefix, fallback string) string {
	if strings.TrimSpace(prefix) == "" {
		return fallback
	}
	return prefix
}

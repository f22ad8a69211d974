package runner

import "time"

// TrialEventType identifies a trial status update for observers.
type TrialEventType string

const (
	// TrialQueued marks a trial known but not yet admitted by the scheduler.
	TrialQueued TrialEventType = "queued"
	// TrialReserving marks a reserve attempt in progress.
	TrialReserving TrialEventType = "reserving"
	// TrialWaitingRateLimit marks a reserve denial with retry_after_ms.
	TrialWaitingRateLimit TrialEventType = "waiting_rate_limit"
	// TrialWaitingLimiterError marks a reserve error retry.
	TrialWaitingLimiterError TrialEventType = "waiting_limiter_error"
	// TrialRunning marks an active model interaction.
	TrialRunning TrialEventType = "running"
	// TrialToolStart marks the start of a counter tool call.
	TrialToolStart TrialEventType = "tool_start"
	// TrialToolFinish marks the completion of a counter tool call.
	TrialToolFinish TrialEventType = "tool_finish"
	// TrialMatched marks a reported count equal to the actual count.
	TrialMatched TrialEventType = "matched"
	// TrialMismatched marks a reported count that differs from the actual count.
	TrialMismatched TrialEventType = "mismatched"
	// TrialUnreported marks an answer without a parseable count.
	TrialUnreported TrialEventType = "unreported"
	// TrialFailed marks a model invocation failure.
	TrialFailed TrialEventType = "failed"
	// TrialSkipped marks a trial never started because the run aborted.
	TrialSkipped TrialEventType = "skipped"
)

// Terminal reports whether no further events follow for the trial.
func (t TrialEventType) Terminal() bool {
	switch t {
	case TrialMatched, TrialMismatched, TrialUnreported, TrialFailed, TrialSkipped:
		return true
	default:
		return false
	}
}

// TrialEvent carries a single status update for a trial.
type TrialEvent struct {
	Model        string
	TrialIndex   int
	Type         TrialEventType
	RetryAfterMs int
	ToolName     string
	ToolDuration time.Duration
	ToolError    string
	ToolCalls    int
	ActualCount  int
	Reported     string
	Steps        int
	WallTime     time.Duration
	Error        string
	EmittedAt    time.Time
}

// RunObserver receives run lifecycle events for UI or logging.
// Trial events may arrive from several goroutines at once.
type RunObserver interface {
	// OnRunStart signals the start of a run.
	OnRunStart(runID string, models []string, experiments int)
	// OnModelStart signals that trials for a model are about to be scheduled.
	OnModelStart(model string, experiments int)
	// OnTrialEvent delivers a trial status update.
	OnTrialEvent(event TrialEvent)
	// OnModelEnd signals that a model finished, aborted, or was not run.
	OnModelEnd(result ModelResult)
	// OnRunEnd signals run completion.
	OnRunEnd(results Results)
}

package runner

import (
	"context"
	"sync"
	"time"

	"toolcount/internal/agent"
	"toolcount/internal/tools"
	"toolcount/pkg/ratelimiter"
)

// trialEventOptions carries optional metadata for a trial event.
type trialEventOptions struct {
	EventType    TrialEventType
	RetryAfterMs int
	ToolName     string
	ToolDuration time.Duration
	ToolError    string
	Trial        *Trial
	Error        string
}

// trialJobObserver bridges scheduler and tool activity to RunObserver callbacks.
type trialJobObserver struct {
	observer  RunObserver
	model     string
	total     int
	now       func() time.Time
	mu        sync.Mutex
	jobIndex  map[string]int
	toolCalls map[int]int
}

// newTrialJobObserver returns nil when no RunObserver is set; all methods
// accept a nil receiver.
func newTrialJobObserver(observer RunObserver, model string, total int, now func() time.Time) *trialJobObserver {
	if observer == nil {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return &trialJobObserver{
		observer:  observer,
		model:     model,
		total:     total,
		now:       now,
		jobIndex:  map[string]int{},
		toolCalls: map[int]int{},
	}
}

// EmitQueuedAll emits queued events for every trial of the model.
func (o *trialJobObserver) EmitQueuedAll() {
	if o == nil {
		return
	}
	for index := 0; index < o.total; index++ {
		o.Emit(index, trialEventOptions{EventType: TrialQueued})
	}
}

// RegisterJob associates a scheduler job id with a trial index.
func (o *trialJobObserver) RegisterJob(jobID string, index int) {
	if o == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jobIndex[jobID] = index
}

// Emit emits an observer event for the given trial index.
func (o *trialJobObserver) Emit(index int, opts trialEventOptions) {
	if o == nil {
		return
	}
	if index < 0 || index >= o.total {
		return
	}
	o.mu.Lock()
	if opts.EventType == TrialToolFinish && opts.ToolError == "" {
		o.toolCalls[index]++
	}
	calls := o.toolCalls[index]
	o.mu.Unlock()

	event := TrialEvent{
		Model:        o.model,
		TrialIndex:   index,
		Type:         opts.EventType,
		RetryAfterMs: opts.RetryAfterMs,
		ToolName:     opts.ToolName,
		ToolDuration: opts.ToolDuration,
		ToolError:    opts.ToolError,
		ToolCalls:    calls,
		Error:        opts.Error,
		EmittedAt:    o.now(),
	}
	if trial := opts.Trial; trial != nil {
		event.ActualCount = trial.ActualCount
		event.ToolCalls = trial.ActualCount
		event.Reported = trial.Reported()
		event.Steps = trial.Steps
		event.WallTime = time.Duration(trial.WallTimeSeconds * float64(time.Second))
		if event.Error == "" {
			event.Error = trial.Error
		}
	}
	o.observer.OnTrialEvent(event)
}

// EmitOutcome emits the terminal event for a finished trial.
func (o *trialJobObserver) EmitOutcome(trial Trial) {
	if o == nil {
		return
	}
	eventType := TrialMismatched
	switch {
	case trial.Failed():
		eventType = TrialFailed
	case trial.ReportedCount == nil:
		eventType = TrialUnreported
	case trial.Matched:
		eventType = TrialMatched
	}
	o.Emit(trial.Index, trialEventOptions{EventType: eventType, Trial: &trial})
}

// OnReserveStart reports reserve attempts from the scheduler.
func (o *trialJobObserver) OnReserveStart(job ratelimiter.Job) {
	o.emitByJob(job.JobID, trialEventOptions{EventType: TrialReserving})
}

// OnReserveDenied reports reserve denials from the scheduler.
func (o *trialJobObserver) OnReserveDenied(job ratelimiter.Job, res ratelimiter.Decision) {
	o.emitByJob(job.JobID, trialEventOptions{
		EventType:    TrialWaitingRateLimit,
		RetryAfterMs: int(res.RetryAfter.Milliseconds()),
		Error:        res.Reason,
	})
}

// OnReserveError reports reserve errors from the scheduler.
func (o *trialJobObserver) OnReserveError(job ratelimiter.Job, err error) {
	if err == nil {
		return
	}
	o.emitByJob(job.JobID, trialEventOptions{
		EventType: TrialWaitingLimiterError,
		Error:     err.Error(),
	})
}

// emitByJob resolves a job id to its trial index and emits an event.
func (o *trialJobObserver) emitByJob(jobID string, opts trialEventOptions) {
	if o == nil {
		return
	}
	o.mu.Lock()
	index, ok := o.jobIndex[jobID]
	o.mu.Unlock()
	if !ok {
		return
	}
	o.Emit(index, opts)
}

// requestDenied returns a callback reporting per-request rate limit waits for a trial.
func (o *trialJobObserver) requestDenied(index int) func(ratelimiter.Decision) {
	if o == nil {
		return nil
	}
	return func(res ratelimiter.Decision) {
		o.Emit(index, trialEventOptions{EventType: TrialWaitingRateLimit, RetryAfterMs: int(res.RetryAfter.Milliseconds()), Error: res.Reason})
	}
}

// executorWrapper returns a wrapper emitting tool events for a trial, or nil.
func (o *trialJobObserver) executorWrapper(index int) func(agent.ToolExecutor) agent.ToolExecutor {
	if o == nil {
		return nil
	}
	return func(inner agent.ToolExecutor) agent.ToolExecutor {
		return observedToolExecutor{observer: o, index: index, inner: inner}
	}
}

// observedToolExecutor wraps a ToolExecutor to emit tool activity events.
type observedToolExecutor struct {
	observer *trialJobObserver
	index    int
	inner    agent.ToolExecutor
}

// Execute emits tool start/finish events around tool execution.
func (e observedToolExecutor) Execute(ctx context.Context, call agent.ToolCall) tools.CallResult {
	e.observer.Emit(e.index, trialEventOptions{EventType: TrialToolStart, ToolName: call.Name})
	start := time.Now()
	result := e.inner.Execute(ctx, call)
	duration := result.Duration
	if duration <= 0 {
		duration = time.Since(start)
	}
	e.observer.Emit(e.index, trialEventOptions{
		EventType:    TrialToolFinish,
		ToolName:     call.Name,
		ToolDuration: duration,
		ToolError:    result.Error,
	})
	return result
}

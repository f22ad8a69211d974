package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"toolcount/pkg/ratelimiter"
)

// ErrInvalidConfiguration rejects a run before any trial starts.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrorPolicy decides what happens to the remaining trials after an invocation error.
type ErrorPolicy string

const (
	// OnErrorAbort stops scheduling trials and reports the completed ones.
	OnErrorAbort ErrorPolicy = "abort"
	// OnErrorSkip records the failed trial and keeps going.
	OnErrorSkip ErrorPolicy = "skip"
)

// ParseErrorPolicy parses "abort" or "skip"; empty means abort.
func ParseErrorPolicy(value string) (ErrorPolicy, error) {
	switch ErrorPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", OnErrorAbort:
		return OnErrorAbort, nil
	case OnErrorSkip:
		return OnErrorSkip, nil
	default:
		return "", fmt.Errorf("%w: on_error must be abort or skip, got %q", ErrInvalidConfiguration, value)
	}
}

// AbortError reports a model run stopped early. Completed counts the
// trials that finished before the stop.
type AbortError struct {
	Model     string
	Completed int
	Requested int
	Err       error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%s: aborted after %d of %d trials completed: %v", e.Model, e.Completed, e.Requested, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// ModelRunConfig configures the trials of one model.
type ModelRunConfig struct {
	Trial       TrialConfig
	Experiments int
	Concurrency int
	OnError     ErrorPolicy
	// Limiter admits trials and model requests; nil admits everything.
	Limiter  ratelimiter.Limiter
	Observer RunObserver
	Now      func() time.Time
}

// trialOutcome is what each scheduled job reports back exactly once.
type trialOutcome struct {
	index   int
	trial   Trial
	err     error
	skipped bool
	// stop marks the error that aborted the run.
	stop bool
}

// RunModel runs cfg.Experiments trials and aggregates them. Trials keep their
// issue order regardless of concurrency. With OnErrorAbort the first
// invocation error stops the run and the partial result comes back with an
// *AbortError; canceling ctx does the same.
func RunModel(ctx context.Context, cfg ModelRunConfig) (ModelResult, error) {
	n := cfg.Experiments
	if n <= 0 {
		return ModelResult{}, fmt.Errorf("%w: experiments must be at least 1, got %d", ErrInvalidConfiguration, n)
	}
	if cfg.Trial.Provider == nil {
		return ModelResult{}, fmt.Errorf("%w: provider is required", ErrInvalidConfiguration)
	}
	policy, err := ParseErrorPolicy(string(cfg.OnError))
	if err != nil {
		return ModelResult{}, err
	}
	workers := max(cfg.Concurrency, 1)
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimiter.Unlimited
	}
	ref := cfg.Trial.Model
	model := ref.String()
	if cfg.Observer != nil {
		cfg.Observer.OnModelStart(model, n)
	}
	observer := newTrialJobObserver(cfg.Observer, model, n, cfg.Now)
	observer.EmitQueuedAll()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	base := cfg.Trial
	shareWriters(workers, &base.VerboseWriter, &base.VerboseLogWriter)

	sched := ratelimiter.NewScheduler(limiter, workers, ratelimiter.WithObserver(schedulerObserver(observer)))
	defer func() { _ = sched.Shutdown(context.Background()) }()

	var mu sync.Mutex
	stopped := false
	outcomes := make(chan trialOutcome, n)
	for index := 0; index < n; index++ {
		jobID := fmt.Sprintf("%s-%d", model, index+1)
		observer.RegisterJob(jobID, index)
		trialCfg := base
		trialCfg.Provider = newLimitedProvider(base.Provider, limiter, ref, jobID, observer.requestDenied(index))
		trialCfg.LogPrefix = fmt.Sprintf("%s trial %d/%d", model, index+1, n)
		sched.Submit(ratelimiter.Job{
			JobID:        jobID,
			Provider:     ref.Provider,
			Model:        ref.Name,
			Requirements: ratelimiter.TrialRequirements(ref.Provider, ref.Name),
			Execute: func(_ context.Context) error {
				mu.Lock()
				skip := stopped
				mu.Unlock()
				if skip || runCtx.Err() != nil {
					outcomes <- trialOutcome{index: index, skipped: true}
					return nil
				}
				observer.Emit(index, trialEventOptions{EventType: TrialRunning})
				trial, err := runTrial(runCtx, index, trialCfg, observer.executorWrapper(index))
				stop := false
				if err != nil && policy == OnErrorAbort {
					mu.Lock()
					stop = !stopped
					stopped = true
					mu.Unlock()
					if stop {
						cancel()
					}
				}
				outcomes <- trialOutcome{index: index, trial: trial, err: err, stop: stop}
				return err
			},
		})
	}

	slots := make([]*Trial, n)
	var stopErr error
collect:
	for received := 0; received < n; received++ {
		var outcome trialOutcome
		select {
		case outcome = <-outcomes:
		case <-ctx.Done():
			break collect
		}
		if outcome.skipped {
			observer.Emit(outcome.index, trialEventOptions{EventType: TrialSkipped})
			continue
		}
		if outcome.stop {
			observer.EmitOutcome(outcome.trial)
			stopErr = outcome.err
			continue
		}
		if outcome.err != nil && (policy == OnErrorAbort || ctx.Err() != nil) {
			// Interrupted by the stop; not a completed trial.
			observer.Emit(outcome.index, trialEventOptions{EventType: TrialSkipped, Error: outcome.err.Error()})
			continue
		}
		observer.EmitOutcome(outcome.trial)
		trial := outcome.trial
		slots[outcome.index] = &trial
	}

	trials := make([]Trial, 0, n)
	for _, slot := range slots {
		if slot != nil {
			trials = append(trials, *slot)
		}
	}
	result := ModelResult{
		Model:     model,
		Status:    StatusCompleted,
		Requested: n,
		Completed: len(trials),
		Aggregate: Aggregate(model, trials),
		Trials:    trials,
	}
	if stopErr == nil && ctx.Err() != nil {
		stopErr = ctx.Err()
	}
	if stopErr != nil {
		reason := stopErr.Error()
		result.Status = StatusAborted
		result.FailureReason = &reason
		return result, &AbortError{Model: model, Completed: len(trials), Requested: n, Err: stopErr}
	}
	return result, nil
}

// schedulerObserver avoids handing the scheduler a typed nil.
func schedulerObserver(o *trialJobObserver) ratelimiter.SchedulerObserver {
	if o == nil {
		return nil
	}
	return o
}

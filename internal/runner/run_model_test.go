package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"toolcount/internal/agent"
	"toolcount/internal/testutil"
	"toolcount/pkg/ratelimiter"
)

func modelRunConfig(provider agent.Provider, experiments int) ModelRunConfig {
	return ModelRunConfig{
		Trial:       testTrialConfig(provider),
		Experiments: experiments,
		Concurrency: 1,
		OnError:     OnErrorAbort,
	}
}

func TestRunModelRejectsNonPositiveExperiments(t *testing.T) {
	for _, n := range []int{0, -1} {
		provider := newScriptedProvider(exact(1))
		_, err := RunModel(testutil.Context(t, time.Second), modelRunConfig(provider, n))
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("n=%d: expected invalid configuration, got %v", n, err)
		}
		if provider.Requests() != 0 {
			t.Fatalf("n=%d: expected no model requests, got %d", n, provider.Requests())
		}
	}
}

func TestRunModelRejectsUnknownPolicy(t *testing.T) {
	cfg := modelRunConfig(newScriptedProvider(exact(1)), 1)
	cfg.OnError = "retry"
	if _, err := RunModel(testutil.Context(t, time.Second), cfg); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
}

func TestRunModelSequentialKeepsIssueOrder(t *testing.T) {
	provider := newScriptedProvider(exact(3), exact(5), exact(7))
	result, err := RunModel(testutil.Context(t, 2*time.Second), modelRunConfig(provider, 3))
	if err != nil {
		t.Fatalf("run model: %v", err)
	}
	if result.Status != StatusCompleted || result.Completed != 3 || result.Requested != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for i, want := range []int{3, 5, 7} {
		trial := result.Trials[i]
		if trial.Index != i || trial.ActualCount != want || !trial.Matched {
			t.Fatalf("trial %d: unexpected %+v", i, trial)
		}
	}
	agg := result.Aggregate
	if agg.AccuracyPct != 100 || agg.MostCommonCount != 3 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
}

func TestRunModelConcurrentTrials(t *testing.T) {
	provider := newScriptedProvider(exact(2))
	cfg := modelRunConfig(provider, 8)
	cfg.Concurrency = 4
	result, err := RunModel(testutil.Context(t, 5*time.Second), cfg)
	if err != nil {
		t.Fatalf("run model: %v", err)
	}
	if result.Completed != 8 || len(result.Trials) != 8 {
		t.Fatalf("expected 8 trials, got %+v", result)
	}
	for i, trial := range result.Trials {
		if trial.Index != i {
			t.Fatalf("expected issue order, trial %d has index %d", i, trial.Index)
		}
	}
	if result.Aggregate.AccuracyPct != 100 || result.Aggregate.MostCommonPct != 100 {
		t.Fatalf("unexpected aggregate: %+v", result.Aggregate)
	}
	if provider.Started() != 8 {
		t.Fatalf("expected 8 conversations, got %d", provider.Started())
	}
}

func TestRunModelAbortReportsCompletedTrials(t *testing.T) {
	boom := errors.New("upstream unavailable")
	provider := newScriptedProvider(exact(3), trialPlan{err: boom}, exact(5), exact(7))
	result, err := RunModel(testutil.Context(t, 2*time.Second), modelRunConfig(provider, 4))
	var abortErr *AbortError
	if !errors.As(err, &abortErr) {
		t.Fatalf("expected AbortError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if abortErr.Completed != 1 || abortErr.Requested != 4 {
		t.Fatalf("unexpected abort error: %+v", abortErr)
	}
	if result.Status != StatusAborted || result.Completed != 1 || result.FailureReason == nil {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Aggregate.Experiments != 1 || result.Aggregate.AccuracyPct != 100 {
		t.Fatalf("expected aggregate over completed trials, got %+v", result.Aggregate)
	}
	if provider.Started() != 2 {
		t.Fatalf("expected no trials after the failure, got %d started", provider.Started())
	}
}

func TestRunModelSkipRecordsFailedTrial(t *testing.T) {
	boom := errors.New("upstream unavailable")
	provider := newScriptedProvider(exact(3), trialPlan{err: boom}, exact(5), exact(7))
	cfg := modelRunConfig(provider, 4)
	cfg.OnError = OnErrorSkip
	result, err := RunModel(testutil.Context(t, 2*time.Second), cfg)
	if err != nil {
		t.Fatalf("skip policy must not fail the run, got %v", err)
	}
	if result.Status != StatusCompleted || result.Completed != 4 {
		t.Fatalf("unexpected result: %+v", result)
	}
	failed := result.Trials[1]
	if !failed.Failed() || failed.Matched || failed.ReportedCount != nil {
		t.Fatalf("expected failed trial, got %+v", failed)
	}
	agg := result.Aggregate
	if agg.Failed != 1 || agg.Matched != 3 || agg.AccuracyPct != 75 {
		t.Fatalf("failed trials must not count as matches, got %+v", agg)
	}
}

func TestRunModelIsDeterministicForScriptedModel(t *testing.T) {
	run := func() AggregateResult {
		provider := newScriptedProvider(exact(4), trialPlan{calls: 4, answer: "<count>6</count>"}, exact(9))
		result, err := RunModel(testutil.Context(t, 2*time.Second), modelRunConfig(provider, 3))
		if err != nil {
			t.Fatalf("run model: %v", err)
		}
		return result.Aggregate
	}
	first, second := run(), run()
	if first.AccuracyPct != second.AccuracyPct || first.MostCommonCount != second.MostCommonCount || first.MostCommonPct != second.MostCommonPct {
		t.Fatalf("expected identical aggregates, got %+v and %+v", first, second)
	}
	if first.MostCommonCount != 4 {
		t.Fatalf("expected most common count 4, got %d", first.MostCommonCount)
	}
}

func TestRunModelEmitsTerminalEvents(t *testing.T) {
	provider := newScriptedProvider(exact(2), trialPlan{calls: 2, answer: "<count>3</count>"}, trialPlan{calls: 1, answer: "no idea"})
	observer := &recordingObserver{}
	cfg := modelRunConfig(provider, 3)
	cfg.Observer = observer
	if _, err := RunModel(testutil.Context(t, 2*time.Second), cfg); err != nil {
		t.Fatalf("run model: %v", err)
	}
	terminal := observer.terminalEvents()
	want := map[int]TrialEventType{0: TrialMatched, 1: TrialMismatched, 2: TrialUnreported}
	for index, eventType := range want {
		if terminal[index] != eventType {
			t.Fatalf("trial %d: expected %s, got %s", index, eventType, terminal[index])
		}
	}
	toolFinishes := 0
	for _, event := range observer.events {
		if event.Type == TrialToolFinish {
			toolFinishes++
		}
	}
	if toolFinishes != 5 {
		t.Fatalf("expected 5 tool finish events, got %d", toolFinishes)
	}
}

func TestRunModelCanceledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := RunModel(ctx, modelRunConfig(newScriptedProvider(exact(1)), 3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	var abortErr *AbortError
	if !errors.As(err, &abortErr) || abortErr.Completed != 0 {
		t.Fatalf("expected AbortError with no completed trials, got %v", err)
	}
	if result.Status != StatusAborted {
		t.Fatalf("expected aborted status, got %q", result.Status)
	}
}

func TestRunModelReservesEveryModelRequest(t *testing.T) {
	provider := newScriptedProvider(exact(3))
	limiter := &recordingLimiter{}
	cfg := modelRunConfig(provider, 2)
	cfg.Limiter = limiter
	if _, err := RunModel(testutil.Context(t, 2*time.Second), cfg); err != nil {
		t.Fatalf("run model: %v", err)
	}
	if got := limiter.countKey(ratelimiter.RPMKey("stub", "model")); got != provider.Requests() {
		t.Fatalf("expected %d request reservations, got %d", provider.Requests(), got)
	}
	if got := limiter.countKey(ratelimiter.ConcurrencyKey("stub", "model")); got != 2 {
		t.Fatalf("expected 2 trial reservations, got %d", got)
	}
}

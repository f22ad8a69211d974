package runner

import (
	"math"
	"testing"
)

func intPtr(v int) *int { return &v }

func trialWith(actual int, reported *int) Trial {
	matched := reported != nil && *reported == actual
	return Trial{ActualCount: actual, ReportedCount: reported, Matched: matched}
}

func TestAggregateAccuracyAndMode(t *testing.T) {
	trials := []Trial{
		trialWith(42, intPtr(42)),
		trialWith(42, intPtr(41)),
		trialWith(17, intPtr(17)),
		trialWith(42, nil),
	}
	got := Aggregate("openai:gpt-4o-mini", trials)
	if got.Experiments != 4 {
		t.Fatalf("expected 4 experiments, got %d", got.Experiments)
	}
	if got.Matched != 2 || got.AccuracyPct != 50 {
		t.Fatalf("expected 2 matched / 50%%, got %d / %v", got.Matched, got.AccuracyPct)
	}
	if got.MostCommonCount != 42 || got.MostCommonPct != 75 {
		t.Fatalf("expected mode 42 at 75%%, got %d at %v", got.MostCommonCount, got.MostCommonPct)
	}
	if got.Unreported != 1 {
		t.Fatalf("expected 1 unreported, got %d", got.Unreported)
	}
	if got.MinActual != 17 || got.MaxActual != 42 {
		t.Fatalf("unexpected min/max %d/%d", got.MinActual, got.MaxActual)
	}
	if math.Abs(got.MeanActual-35.75) > 1e-9 {
		t.Fatalf("unexpected mean %v", got.MeanActual)
	}
	if len(got.Distribution) != 2 || got.Distribution[0] != (CountFrequency{Count: 17, Trials: 1}) {
		t.Fatalf("unexpected distribution %+v", got.Distribution)
	}
}

func TestAggregateModeTieTakesSmallest(t *testing.T) {
	trials := []Trial{
		trialWith(50, intPtr(50)),
		trialWith(30, intPtr(30)),
		trialWith(50, intPtr(50)),
		trialWith(30, intPtr(30)),
		trialWith(70, intPtr(70)),
	}
	got := Aggregate("m", trials)
	if got.MostCommonCount != 30 {
		t.Fatalf("expected tie to resolve to 30, got %d", got.MostCommonCount)
	}
	if got.MostCommonPct != 40 {
		t.Fatalf("expected 40%%, got %v", got.MostCommonPct)
	}
}

func TestAggregateSingleTrial(t *testing.T) {
	got := Aggregate("m", []Trial{trialWith(7, intPtr(7))})
	if got.AccuracyPct != 100 || got.MostCommonCount != 7 || got.MostCommonPct != 100 {
		t.Fatalf("unexpected aggregate %+v", got)
	}
}

func TestAggregateNeverCountsFailedTrials(t *testing.T) {
	failed := trialWith(5, nil)
	failed.Error = "provider: 500"
	failed.Matched = true
	got := Aggregate("m", []Trial{failed, trialWith(5, intPtr(5))})
	if got.Matched != 1 || got.Failed != 1 {
		t.Fatalf("expected one match and one failure, got %+v", got)
	}
	if got.AccuracyPct != 50 {
		t.Fatalf("expected 50%%, got %v", got.AccuracyPct)
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate("m", nil)
	if got.Experiments != 0 || got.AccuracyPct != 0 || got.Distribution != nil {
		t.Fatalf("expected zero aggregate, got %+v", got)
	}
}

func TestAggregateAccuracyBounds(t *testing.T) {
	trials := []Trial{trialWith(1, intPtr(2)), trialWith(3, intPtr(4))}
	if got := Aggregate("m", trials); got.AccuracyPct != 0 {
		t.Fatalf("expected 0%%, got %v", got.AccuracyPct)
	}
}

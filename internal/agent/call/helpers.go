package call

import (
	"context"
	"errors"
	"time"

	"toolcount/internal/agent"
)

// failureReasonForError maps a run error to a CallResult failure reason.
func failureReasonForError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLoopCapExceeded):
		return "loop_cap_exceeded"
	case errors.Is(err, ErrBudgetExceeded):
		return "budget_exceeded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "runtime_error"
	}
}

// checkLimits reports the first limit a run has exceeded. The step cap
// applies even when limits is zero.
func checkLimits(start time.Time, limits RunLimits, counter agent.TokenCounter, history []agent.HistoryItem, steps int) error {
	capSteps := limits.MaxSteps
	if capSteps <= 0 {
		capSteps = DefaultMaxSteps
	}
	switch {
	case steps >= capSteps:
		return ErrLoopCapExceeded
	case limits.MaxSeconds > 0 && time.Since(start) > limits.MaxSeconds:
		return ErrBudgetExceeded
	case limits.MaxTokens > 0 && counter != nil && counter(history) > limits.MaxTokens:
		return ErrBudgetExceeded
	}
	return nil
}

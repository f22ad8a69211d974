package report

import (
	"fmt"

	"toolcount/internal/runner"
)

//go:generate templ generate -f page.templ

// abortNote says how far an aborted model got and why it stopped.
func abortNote(model runner.ModelResult) string {
	note := fmt.Sprintf("%d of %d trials completed", model.Completed, model.Requested)
	if model.FailureReason != nil {
		note += " (" + *model.FailureReason + ")"
	}
	return note
}

func outcomeClass(trial runner.Trial) string {
	switch {
	case trial.Failed():
		return "failed"
	case trial.Matched:
		return "matched"
	default:
		return "mismatched"
	}
}

func outcomeLabel(trial runner.Trial) string {
	switch {
	case trial.Failed():
		return "failed: " + trial.FailureReason
	case trial.Matched:
		return "matched"
	case trial.ReportedCount == nil:
		return runner.Unreported
	default:
		return "mismatched"
	}
}

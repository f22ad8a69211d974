package cli

import (
	"fmt"
	"io"
	"sync"

	"toolcount/internal/runner"
)

// plainObserver prints one line per model and a dot per finished trial.
type plainObserver struct {
	mu sync.Mutex
	w  io.Writer
}

func (o *plainObserver) OnRunStart(runID string, models []string, experiments int) {
	o.printf("Run %s: %d model(s), %d experiments each\n", runID, len(models), experiments)
}

func (o *plainObserver) OnModelStart(model string, experiments int) {
	o.printf("%s ", model)
}

func (o *plainObserver) OnTrialEvent(event runner.TrialEvent) {
	switch event.Type {
	case runner.TrialMatched:
		o.printf(".")
	case runner.TrialMismatched, runner.TrialUnreported:
		o.printf("x")
	case runner.TrialFailed:
		o.printf("E")
	}
}

func (o *plainObserver) OnModelEnd(result runner.ModelResult) {
	o.printf(" %s (%d/%d)\n", result.Status, result.Completed, result.Requested)
}

func (o *plainObserver) OnRunEnd(runner.Results) {
	o.printf("\n")
}

func (o *plainObserver) printf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.w, format, args...)
}

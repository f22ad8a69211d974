package live

import (
	"time"

	"toolcount/internal/runner"
)

// ToolActivity is the latest counter tool call seen for a trial.
type ToolActivity struct {
	Name       string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Running reports whether the call has started but not returned.
func (a ToolActivity) Running() bool { return a.Name != "" && a.FinishedAt.IsZero() }

// TrialRow is what the table shows for one trial.
type TrialRow struct {
	Index      int
	Status     runner.TrialEventType
	Tool       ToolActivity
	ToolCalls  int
	Reported   string
	Retries    int
	RetryAfter time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// Tally counts rows per status bucket. Done includes every terminal status.
type Tally struct {
	Queued     int
	Waiting    int
	Running    int
	Done       int
	Matched    int
	Mismatched int
	Unreported int
	Failed     int
	Skipped    int
}

func (t *Tally) add(status runner.TrialEventType) {
	switch status {
	case runner.TrialQueued, runner.TrialReserving:
		t.Queued++
	case runner.TrialWaitingRateLimit, runner.TrialWaitingLimiterError:
		t.Waiting++
	case runner.TrialRunning:
		t.Running++
	case runner.TrialMatched:
		t.Matched++
	case runner.TrialMismatched:
		t.Mismatched++
	case runner.TrialUnreported:
		t.Unreported++
	case runner.TrialFailed:
		t.Failed++
	case runner.TrialSkipped:
		t.Skipped++
	}
	if status.Terminal() {
		t.Done++
	}
}

// State is everything the view renders. Rows belong to the current model;
// earlier models survive only as their summary lines in Finished.
type State struct {
	RunID       string
	Models      int
	ModelIndex  int
	Model       string
	Experiments int
	StartedAt   time.Time
	Rows        []TrialRow
	Tally       Tally
	Finished    []string
	LastEvent   string
}

// Messages the controller feeds into the program.
type (
	runStartMsg struct {
		runID       string
		models      []string
		experiments int
	}
	modelStartMsg struct {
		model       string
		experiments int
	}
	trialMsg    runner.TrialEvent
	modelEndMsg runner.ModelResult
	runEndMsg   struct{}
)

// apply folds one controller message into the state.
func (s State) apply(msg any, now time.Time) State {
	switch m := msg.(type) {
	case runStartMsg:
		s.RunID, s.Models, s.Experiments = m.runID, len(m.models), m.experiments
		if s.StartedAt.IsZero() {
			s.StartedAt = now
		}
	case modelStartMsg:
		s.ModelIndex++
		s.Model, s.Experiments = m.model, m.experiments
		s.Rows, s.Tally, s.LastEvent = nil, Tally{}, ""
	case trialMsg:
		s = s.withTrial(runner.TrialEvent(m))
	case modelEndMsg:
		line := modelSummary(runner.ModelResult(m))
		s.Finished = append(s.Finished, line)
		s.LastEvent = line
	}
	return s
}

// withTrial applies a trial event. Rows up to its index are created queued,
// and a row that reached a terminal status ignores later status changes.
func (s State) withTrial(event runner.TrialEvent) State {
	i := event.TrialIndex
	if i < 0 {
		return s
	}
	if i >= len(s.Rows) {
		rows := make([]TrialRow, i+1)
		copy(rows, s.Rows)
		for j := len(s.Rows); j <= i; j++ {
			rows[j] = TrialRow{Index: j, Status: runner.TrialQueued}
		}
		s.Rows = rows
	} else {
		s.Rows = append([]TrialRow(nil), s.Rows...)
	}
	s.Rows[i] = s.Rows[i].with(event)

	s.Tally = Tally{}
	for _, row := range s.Rows {
		s.Tally.add(row.Status)
	}
	if line := eventLine(event); line != "" {
		s.LastEvent = line
	}
	return s
}

func (r TrialRow) with(event runner.TrialEvent) TrialRow {
	switch event.Type {
	case runner.TrialToolStart:
		r.Tool = ToolActivity{Name: event.ToolName, StartedAt: event.EmittedAt}
		return r
	case runner.TrialToolFinish:
		if r.Tool.Name != event.ToolName {
			r.Tool = ToolActivity{Name: event.ToolName}
		}
		r.Tool.Error = event.ToolError
		r.Tool.FinishedAt = event.EmittedAt
		if r.Tool.StartedAt.IsZero() && event.ToolDuration > 0 {
			r.Tool.StartedAt = event.EmittedAt.Add(-event.ToolDuration)
		}
		r.ToolCalls = event.ToolCalls
		return r
	}
	if r.Status.Terminal() {
		return r
	}
	r.Status = event.Type
	r.RetryAfter = time.Duration(event.RetryAfterMs) * time.Millisecond
	switch {
	case event.Type == runner.TrialWaitingRateLimit, event.Type == runner.TrialWaitingLimiterError:
		r.Retries++
	case event.Type == runner.TrialRunning && r.StartedAt.IsZero():
		r.StartedAt = event.EmittedAt
	case event.Type.Terminal():
		r.FinishedAt = event.EmittedAt
		r.Error = event.Error
		if event.Type != runner.TrialSkipped {
			r.ToolCalls = event.ActualCount
			r.Reported = event.Reported
		}
	}
	return r
}

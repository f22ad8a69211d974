package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"toolcount/internal/runner"
)

// theme holds the styles of one UI. The plain theme renders text unchanged.
type theme struct {
	plain bool
}

var statusColors = map[runner.TrialEventType]lipgloss.Color{
	runner.TrialMatched:             "42",
	runner.TrialMismatched:          "220",
	runner.TrialUnreported:          "220",
	runner.TrialFailed:              "196",
	runner.TrialWaitingRateLimit:    "39",
	runner.TrialWaitingLimiterError: "39",
	runner.TrialRunning:             "33",
	runner.TrialQueued:              "246",
	runner.TrialReserving:           "246",
	runner.TrialSkipped:             "246",
}

func (th theme) color(text string, color lipgloss.Color) string {
	if th.plain {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

func (th theme) status(text string, status runner.TrialEventType) string {
	color, ok := statusColors[status]
	if !ok {
		color = "244"
	}
	return th.color(text, color)
}

// view lays out the header, finished models, tally, table and footer.
func (th theme) view(s State, table string, now time.Time) string {
	header := "Run " + s.RunID
	if s.Model != "" {
		header += fmt.Sprintf(" | Model %d/%d: %s", s.ModelIndex, s.Models, s.Model)
	}
	if !s.StartedAt.IsZero() {
		header += " | Elapsed: " + roundDuration(now.Sub(s.StartedAt))
	}
	parts := []string{th.color(header, "33")}
	if len(s.Finished) > 0 {
		parts = append(parts, th.color(strings.Join(s.Finished, "\n"), "240"))
	}
	parts = append(parts, th.color(tallyLine(s.Tally, s.Experiments), "242"), table)
	if s.LastEvent != "" {
		parts = append(parts, th.color("Last event: "+s.LastEvent, "244"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func tallyLine(t Tally, experiments int) string {
	line := fmt.Sprintf("Queued: %d Waiting: %d Running: %d Done: %d/%d Matched: %d Mismatched: %d Unreported: %d Failed: %d",
		t.Queued, t.Waiting, t.Running, t.Done, experiments, t.Matched, t.Mismatched, t.Unreported, t.Failed)
	if t.Skipped > 0 {
		line += fmt.Sprintf(" Skipped: %d", t.Skipped)
	}
	return line
}

// cells renders one table row.
func (th theme) cells(r TrialRow, now time.Time) []string {
	return []string{
		trialLabel(r.Index),
		th.statusCell(r, now),
		fmt.Sprint(r.ToolCalls),
		r.reportedCell(),
		r.elapsed(now),
		retriesCell(r.Retries),
	}
}

func (th theme) statusCell(r TrialRow, now time.Time) string {
	var text string
	switch r.Status {
	case runner.TrialWaitingRateLimit:
		text = "waiting rate limit"
		if r.RetryAfter > 0 {
			text += " (" + roundDuration(r.RetryAfter) + ")"
		}
	case runner.TrialWaitingLimiterError:
		text = "waiting limiter error"
	default:
		text = string(r.Status)
	}
	cell := th.status(text, r.Status)
	if r.Status != runner.TrialRunning || r.Tool.Name == "" {
		return cell
	}
	tool := "tool:" + r.Tool.Name
	switch {
	case r.Tool.Running() && !r.Tool.StartedAt.IsZero():
		tool += " running " + roundDuration(now.Sub(r.Tool.StartedAt))
	case r.Tool.Running():
		tool += " running"
	case r.Tool.Error != "":
		tool += " error"
	default:
		tool += " done"
	}
	return cell + " | " + th.color(tool, "244")
}

func (r TrialRow) reportedCell() string {
	if !r.Status.Terminal() || r.Status == runner.TrialSkipped {
		return ""
	}
	return r.Reported
}

// elapsed is the running time of an active trial or the total of a finished one.
func (r TrialRow) elapsed(now time.Time) string {
	switch {
	case r.StartedAt.IsZero():
		return ""
	case !r.FinishedAt.IsZero():
		return roundDuration(r.FinishedAt.Sub(r.StartedAt))
	}
	return roundDuration(now.Sub(r.StartedAt))
}

func retriesCell(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprint(n)
}

func trialLabel(index int) string { return fmt.Sprintf("T%02d", index+1) }

func roundDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(100 * time.Millisecond).String()
}

// eventLine describes a trial event for the footer; uninteresting events
// return "".
func eventLine(event runner.TrialEvent) string {
	label := trialLabel(event.TrialIndex)
	switch event.Type {
	case runner.TrialWaitingRateLimit:
		if event.RetryAfterMs > 0 {
			return fmt.Sprintf("%s rate limited (retry in %s)", label, roundDuration(time.Duration(event.RetryAfterMs)*time.Millisecond))
		}
		return label + " rate limited"
	case runner.TrialWaitingLimiterError:
		return label + " limiter error (retrying)"
	case runner.TrialToolFinish:
		if event.ToolError != "" {
			return fmt.Sprintf("%s tool %s error (%s)", label, event.ToolName, event.ToolError)
		}
	case runner.TrialMatched, runner.TrialMismatched:
		return fmt.Sprintf("%s %s: reported %s, actual %d", label, event.Type, event.Reported, event.ActualCount)
	case runner.TrialUnreported:
		return fmt.Sprintf("%s unreported after %d calls", label, event.ActualCount)
	case runner.TrialFailed:
		return fmt.Sprintf("%s failed: %s", label, event.Error)
	}
	return ""
}

// modelSummary is the line a finished model leaves above the table.
func modelSummary(result runner.ModelResult) string {
	agg := result.Aggregate
	line := fmt.Sprintf("%s %s: accuracy %.1f%%, most common %d (%.1f%%)",
		result.Model, result.Status, agg.AccuracyPct, agg.MostCommonCount, agg.MostCommonPct)
	if result.Status == runner.StatusAborted {
		line += fmt.Sprintf(", %d of %d trials completed", result.Completed, result.Requested)
	}
	return line
}

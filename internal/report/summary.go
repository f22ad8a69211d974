// Package report prints experiment results: the summary table, per-model
// statistics, and the HTML page written next to results.json.
package report

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"toolcount/internal/runner"
)

// SummaryHeaders are the summary table columns.
var SummaryHeaders = []string{"model", "experiments", "accuracy%", "most common calls", "most common %"}

// SummaryRow formats one aggregate as a summary table row.
func SummaryRow(agg runner.AggregateResult) []string {
	return []string{
		agg.Model,
		strconv.Itoa(agg.Experiments),
		formatPct(agg.AccuracyPct),
		strconv.Itoa(agg.MostCommonCount),
		formatPct(agg.MostCommonPct),
	}
}

// SummaryTable renders one row per aggregate.
func SummaryTable(rows []runner.AggregateResult, noColor bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(SummaryHeaders...)
	for _, agg := range rows {
		t.Row(SummaryRow(agg)...)
	}
	if noColor {
		t.StyleFunc(func(int, int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})
		return t.String()
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	t.BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240")))
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return header
		}
		if col == 2 && row >= 0 && row < len(rows) {
			return cell.Foreground(accuracyColor(rows[row].AccuracyPct))
		}
		return cell
	})
	return t.String()
}

func accuracyColor(pct float64) lipgloss.Color {
	switch {
	case pct >= 90:
		return lipgloss.Color("42")
	case pct >= 50:
		return lipgloss.Color("220")
	default:
		return lipgloss.Color("196")
	}
}

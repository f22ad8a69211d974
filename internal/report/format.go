package report

import (
	"fmt"
	"strings"

	"toolcount/internal/runner"
)

// formatPct renders a percentage with one decimal.
func formatPct(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// formatDistribution renders count frequencies as {count: trials, ...} in ascending count order.
func formatDistribution(distribution []runner.CountFrequency) string {
	parts := make([]string, 0, len(distribution))
	for _, entry := range distribution {
		parts = append(parts, fmt.Sprintf("%d: %d", entry.Count, entry.Trials))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

package report

import (
	"fmt"
	"strings"

	"toolcount/internal/runner"
)

// Details renders the per-model statistics printed after the summary table.
func Details(result runner.ModelResult) string {
	agg := result.Aggregate
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", agg.Model)
	if result.Status == runner.StatusAborted {
		fmt.Fprintf(&b, "  aborted: %d of %d trials completed\n", result.Completed, result.Requested)
	}
	if agg.Experiments == 0 {
		b.WriteString("  no completed trials\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  actual call distribution: %s\n", formatDistribution(agg.Distribution))
	fmt.Fprintf(&b, "  average actual calls: %.1f\n", agg.MeanActual)
	fmt.Fprintf(&b, "  min/max actual calls: %d/%d\n", agg.MinActual, agg.MaxActual)
	if agg.Unreported > 0 || agg.Failed > 0 {
		fmt.Fprintf(&b, "  unreported: %d  failed: %d\n", agg.Unreported, agg.Failed)
	}
	return b.String()
}

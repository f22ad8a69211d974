package report

import (
	"context"
	"io"
	"strings"

	"toolcount/internal/runner"
)

// WriteHTML renders the report page for results to w.
func WriteHTML(ctx context.Context, w io.Writer, results runner.Results) error {
	return Page(results).Render(ctx, w)
}

// RenderHTML renders the report page into a string.
func RenderHTML(ctx context.Context, results runner.Results) (string, error) {
	var builder strings.Builder
	if err := WriteHTML(ctx, &builder, results); err != nil {
		return "", err
	}
	return builder.String(), nil
}

var _ runner.ReportRenderer = WriteHTML

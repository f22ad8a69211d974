package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// OutputPaths locates the files of one run: Root/RunID/results.json and
// Root/RunID/report.html.
type OutputPaths struct {
	Root  string
	RunID string
}

func (o OutputPaths) RunDir() string      { return filepath.Join(o.Root, o.RunID) }
func (o OutputPaths) ResultsPath() string { return filepath.Join(o.RunDir(), "results.json") }
func (o OutputPaths) ReportPath() string  { return filepath.Join(o.RunDir(), "report.html") }

// ReportRenderer writes the HTML report for a run.
type ReportRenderer func(ctx context.Context, w io.Writer, results Results) error

// WriteRunOutputs writes results.json and report.html under outputDir/<run-id>.
// A nil render writes a minimal placeholder page.
func WriteRunOutputs(ctx context.Context, results Results, outputDir string, render ReportRenderer) (OutputPaths, error) {
	switch {
	case strings.TrimSpace(outputDir) == "":
		return OutputPaths{}, fmt.Errorf("output directory is required")
	case strings.TrimSpace(results.RunID) == "":
		return OutputPaths{}, fmt.Errorf("run id is required")
	}
	paths := OutputPaths{Root: outputDir, RunID: results.RunID}
	if err := os.MkdirAll(paths.RunDir(), 0o755); err != nil {
		return OutputPaths{}, fmt.Errorf("create output dir: %w", err)
	}
	if err := writeJSON(paths.ResultsPath(), results); err != nil {
		return OutputPaths{}, err
	}
	if render == nil {
		render = placeholderReport
	}
	if err := writeReport(ctx, paths.ReportPath(), results, render); err != nil {
		return OutputPaths{}, err
	}
	return paths, nil
}

// writeJSON writes a Results payload as pretty JSON.
func writeJSON(path string, results Results) error {
	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeReport(ctx context.Context, path string, results Results, render ReportRenderer) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close report: %w", closeErr)
		}
	}()
	if err := render(ctx, file, results); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func placeholderReport(_ context.Context, w io.Writer, results Results) error {
	_, err := fmt.Fprintf(w, "<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>toolcount report</title></head><body><h1>toolcount report</h1><p>Run %s, %d model(s)</p></body></html>\n",
		html.EscapeString(results.RunID), len(results.Models))
	return err
}

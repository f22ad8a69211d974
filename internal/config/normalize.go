package config

import (
	"strings"

	"toolcount/internal/agent/call"
	"toolcount/internal/spec"
	"toolcount/internal/tools"
)

// Default experiment settings.
const (
	DefaultModel       = "anthropic:claude-sonnet-4-20250514"
	DefaultProvider    = "openrouter"
	DefaultExperiments = 10
	DefaultConcurrency = 1
	DefaultOnError     = "abort"
)

// Normalize fills unset fields with defaults. Negative values are left for
// Validate to report.
func Normalize(cfg *spec.Config) {
	d := &cfg.Defaults
	d.Model = strings.TrimSpace(d.Model)
	if d.Model == "" {
		d.Model = DefaultModel
	}
	if d.Experiments == 0 {
		d.Experiments = DefaultExperiments
	}
	d.ToolName = strings.TrimSpace(d.ToolName)
	if d.ToolName == "" {
		d.ToolName = tools.DefaultToolName
	}
	if d.MaxSteps == 0 {
		d.MaxSteps = call.DefaultMaxSteps
	}
	if d.Concurrency == 0 {
		d.Concurrency = DefaultConcurrency
	}
	d.OnError = strings.ToLower(strings.TrimSpace(d.OnError))
	if d.OnError == "" {
		d.OnError = DefaultOnError
	}
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	for i := range cfg.Providers {
		cfg.Providers[i].ID = strings.TrimSpace(cfg.Providers[i].ID)
		cfg.Providers[i].BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Providers[i].BaseURL), "/")
	}
	for i := range cfg.Models {
		cfg.Models[i] = strings.TrimSpace(cfg.Models[i])
	}
}

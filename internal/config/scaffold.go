package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var scaffoldComments = map[string]string{
	"version":    "toolcount configuration",
	"output_dir": "results.json and report.html are written to <output_dir>/<run-id>/",
	"defaults":   "flags passed to `toolcount run` override these values",
	"providers":  "extra OpenAI-compatible endpoints; built-in: anthropic, ollama, openai, openrouter",
	"models":     "models to evaluate as provider:model; empty runs defaults.model",
}

// Scaffold writes a starter config to path, refusing to overwrite. An empty
// outputDir uses DefaultOutputDir.
func Scaffold(path, outputDir string) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("config path %q is a directory", path)
		}
		return fmt.Errorf("config file already exists at %q", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	payload, err := renderScaffoldConfig(outputDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// renderScaffoldConfig encodes the default config with explanatory comments.
func renderScaffoldConfig(outputDir string) ([]byte, error) {
	cfg := Default()
	cfg.OutputDir = outputDir
	cfg.Models = []string{cfg.Defaults.Model}

	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode scaffold: %w", err)
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if comment, ok := scaffoldComments[doc.Content[i].Value]; ok {
			doc.Content[i].HeadComment = comment
		}
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode scaffold: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encode scaffold: %w", err)
	}
	return buf.Bytes(), nil
}

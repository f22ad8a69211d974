package config

import (
	"os"
	"path/filepath"
	"testing"

	"toolcount/internal/spec"
)

// validConfig returns a normalized config used by validation tests.
func validConfig() spec.Config {
	cfg := spec.Config{
		Version:   1,
		OutputDir: ".toolcount/results",
		Providers: []spec.ProviderConfig{
			{ID: "local", BaseURL: "http://localhost:8080/v1", APIKeyEnv: "LOCAL_KEY"},
		},
		Models: []string{"openai:gpt-4o-mini", "local:qwen2.5"},
	}
	Normalize(&cfg)
	return cfg
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := ConfigPath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"toolcount/internal/config"
	"toolcount/internal/spec"
)

// resolveSpecPath normalizes a config path or finds it from CWD.
func resolveSpecPath(specPath string) (string, error) {
	if strings.TrimSpace(specPath) == "" {
		return config.FindConfigPath("")
	}
	abs, err := filepath.Abs(specPath)
	if err != nil {
		return "", fmt.Errorf("resolve spec path: %w", err)
	}
	return abs, nil
}

// loadRunConfig loads the config for a run. Without --spec and without a
// discoverable config file the built-in defaults apply, rooted at CWD.
func loadRunConfig(specPath string) (spec.Config, string, error) {
	resolved, err := resolveSpecPath(specPath)
	if errors.Is(err, config.ErrConfigNotFound) {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return spec.Config{}, "", fmt.Errorf("get working directory: %w", wdErr)
		}
		return config.Default(), wd, nil
	}
	if err != nil {
		return spec.Config{}, "", err
	}
	cfg, err := config.Load(resolved)
	if err != nil {
		return spec.Config{}, "", err
	}
	return cfg, config.RootFromConfigPath(resolved), nil
}

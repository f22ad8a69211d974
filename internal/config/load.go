package config

import (
	"fmt"
	"os"

	"toolcount/internal/spec"
)

// Load reads path and returns the normalized config. Validation problems come
// back as a *ValidationError listing every issue.
func Load(path string) (spec.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return spec.Config{}, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()
	cfg, err := spec.DecodeConfig(f)
	if err != nil {
		return spec.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return spec.Config{}, err
	}
	return cfg, nil
}

// Default is the config used when no file exists: version 1 with every
// default applied.
func Default() spec.Config {
	cfg := spec.Config{Version: 1}
	Normalize(&cfg)
	return cfg
}

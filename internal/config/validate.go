package config

import (
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"toolcount/internal/agent"
	"toolcount/internal/spec"
)

// toolNamePattern is the function-name rule shared by OpenAI-compatible APIs.
var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidToolName reports whether name is usable as a tool name.
func ValidToolName(name string) bool {
	return toolNamePattern.MatchString(name)
}

// Validate checks a normalized config and reports every problem at once.
func Validate(cfg *spec.Config) error {
	collector := &issueCollector{}

	if cfg.Version == 0 {
		collector.add("version", "is required")
	} else if cfg.Version != 1 {
		collector.addf("version", "unsupported version %d", cfg.Version)
	}

	providerIDs := validateProviders(cfg, collector)
	validateDefaults(cfg, providerIDs, collector)
	for i, model := range cfg.Models {
		validateModel(fmt.Sprintf("models[%d]", i), model, providerIDs, collector)
	}
	return collector.result()
}

// ValidateModel checks a single provider:model value against cfg, for
// models supplied on the command line.
func ValidateModel(cfg spec.Config, value string) error {
	collector := &issueCollector{}
	validateModel("model", value, knownProviders(cfg), collector)
	return collector.result()
}

func validateDefaults(cfg *spec.Config, providerIDs map[string]struct{}, c *issueCollector) {
	d := cfg.Defaults
	validateModel("defaults.model", d.Model, providerIDs, c)
	if d.Experiments < 1 {
		c.add("defaults.experiments", "must be >= 1")
	}
	if !toolNamePattern.MatchString(d.ToolName) {
		c.addf("defaults.tool_name", "invalid tool name %q (letters, digits, _ and -, at most 64)", d.ToolName)
	}
	if d.MaxSteps < 1 {
		c.add("defaults.max_steps", "must be >= 1")
	}
	if d.MaxSeconds < 0 {
		c.add("defaults.max_seconds", "must be >= 0")
	}
	if d.MaxTokens < 0 {
		c.add("defaults.max_tokens", "must be >= 0")
	}
	if d.Concurrency < 1 {
		c.add("defaults.concurrency", "must be >= 1")
	}
	if d.OnError != "abort" && d.OnError != "skip" {
		c.addf("defaults.on_error", "must be abort or skip, got %q", d.OnError)
	}
	if d.RequestsPerMinute < 0 {
		c.add("defaults.requests_per_minute", "must be >= 0")
	}
	if d.TokensPerMinute < 0 {
		c.add("defaults.tokens_per_minute", "must be >= 0")
	}
}

func validateProviders(cfg *spec.Config, c *issueCollector) map[string]struct{} {
	seen := map[string]struct{}{}
	for i, p := range cfg.Providers {
		prefix := fmt.Sprintf("providers[%d]", i)
		if p.ID == "" {
			c.add(prefix+".id", "is required")
			continue
		}
		if _, dup := seen[p.ID]; dup {
			c.addf("providers.id", "duplicate id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		_, builtin := builtinProviders[p.ID]
		if p.BaseURL == "" {
			if !builtin {
				c.add(prefix+".base_url", "is required")
			}
			continue
		}
		parsed, err := url.Parse(p.BaseURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			c.addf(prefix+".base_url", "invalid URL %q", p.BaseURL)
		}
	}
	return knownProviders(*cfg)
}

func knownProviders(cfg spec.Config) map[string]struct{} {
	ids := make(map[string]struct{}, len(builtinProviders)+len(cfg.Providers))
	for id := range builtinProviders {
		ids[id] = struct{}{}
	}
	for _, p := range cfg.Providers {
		if p.ID != "" {
			ids[p.ID] = struct{}{}
		}
	}
	return ids
}

func validateModel(field, value string, providerIDs map[string]struct{}, c *issueCollector) {
	ref, err := agent.ParseModelRef(value, DefaultProvider)
	if err != nil {
		c.add(field, err.Error())
		return
	}
	if _, ok := providerIDs[ref.Provider]; !ok {
		c.addf(field, "unknown provider %q (known: %s)", ref.Provider, strings.Join(slices.Sorted(maps.Keys(providerIDs)), ", "))
	}
}

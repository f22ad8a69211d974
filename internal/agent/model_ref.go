package agent

import (
	"fmt"
	"strings"
)

// ModelRef identifies a model as provider:model-name.
type ModelRef struct {
	Provider string
	Name     string
}

// String renders the reference in provider:model form.
func (r ModelRef) String() string {
	if r.Provider == "" {
		return r.Name
	}
	return r.Provider + ":" + r.Name
}

// ParseModelRef splits a provider:model identifier on the first colon.
// Model names may themselves contain colons (ollama tags such as llama3:8b).
// A bare name resolves to defaultProvider.
func ParseModelRef(value, defaultProvider string) (ModelRef, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ModelRef{}, fmt.Errorf("model is required")
	}
	provider, name, found := strings.Cut(value, ":")
	if !found {
		provider, name = defaultProvider, value
	}
	provider = strings.TrimSpace(provider)
	name = strings.TrimSpace(name)
	if provider == "" {
		return ModelRef{}, fmt.Errorf("model %q: provider is required", value)
	}
	if name == "" {
		return ModelRef{}, fmt.Errorf("model %q: model name is required", value)
	}
	return ModelRef{Provider: provider, Name: name}, nil
}

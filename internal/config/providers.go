package config

import (
	"fmt"
	"os"
	"strings"

	"toolcount/internal/agent"
	"toolcount/internal/spec"
)

// SharedAPIKeyEnv is consulted when a provider's own key variable is empty.
const SharedAPIKeyEnv = "LLM_API_KEY"

// builtinProviders are usable without any providers entry in the config.
// All of them speak the OpenAI chat-completions wire format.
var builtinProviders = map[string]spec.ProviderConfig{
	"openrouter": {ID: "openrouter", BaseURL: "https://openrouter.ai/api/v1", APIKeyEnv: "OPENROUTER_API_KEY"},
	"openai":     {ID: "openai", BaseURL: "https://api.openai.com/v1", APIKeyEnv: "OPENAI_API_KEY"},
	"anthropic":  {ID: "anthropic", BaseURL: "https://api.anthropic.com/v1", APIKeyEnv: "ANTHROPIC_API_KEY"},
	"ollama":     {ID: "ollama", BaseURL: "http://localhost:11434/v1"},
}

// BuiltinProviderIDs lists the built-in provider ids in a stable order.
func BuiltinProviderIDs() []string {
	return []string{"anthropic", "ollama", "openai", "openrouter"}
}

// ResolveProvider returns the provider settings for id. A configured entry
// overrides the built-in one field by field.
func ResolveProvider(cfg spec.Config, id string) (spec.ProviderConfig, error) {
	id = strings.TrimSpace(id)
	resolved, builtin := builtinProviders[id]
	configured := false
	for _, p := range cfg.Providers {
		if p.ID != id {
			continue
		}
		configured = true
		if p.BaseURL != "" {
			resolved.BaseURL = p.BaseURL
		}
		if p.APIKeyEnv != "" {
			resolved.APIKeyEnv = p.APIKeyEnv
		}
		if len(p.Headers) > 0 {
			resolved.Headers = p.Headers
		}
		resolved.ID = id
	}
	if !builtin && !configured {
		return spec.ProviderConfig{}, fmt.Errorf("unknown provider %q", id)
	}
	return resolved, nil
}

// LookupAPIKey reads the provider's key from the environment. Providers
// without api_key_env need no key.
func LookupAPIKey(p spec.ProviderConfig, getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if p.APIKeyEnv == "" {
		return "", nil
	}
	if key := strings.TrimSpace(getenv(p.APIKeyEnv)); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(getenv(SharedAPIKeyEnv)); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("provider %q: %s (or %s) is required", p.ID, p.APIKeyEnv, SharedAPIKeyEnv)
}

// NewProvider builds a chat provider for ref from the config and environment.
func NewProvider(cfg spec.Config, ref agent.ModelRef, client agent.HTTPDoer, getenv func(string) string) (agent.Provider, error) {
	settings, err := ResolveProvider(cfg, ref.Provider)
	if err != nil {
		return nil, err
	}
	key, err := LookupAPIKey(settings, getenv)
	if err != nil {
		return nil, err
	}
	provider, err := agent.NewChatProvider(agent.ProviderConfig{
		ID:      settings.ID,
		BaseURL: settings.BaseURL,
		APIKey:  key,
		Model:   ref.Name,
		Headers: settings.Headers,
	}, client)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// ModelRefs resolves the models to run: overrides first, then the config's
// models list, then defaults.model.
func ModelRefs(cfg spec.Config, overrides []string) ([]agent.ModelRef, error) {
	values := overrides
	if len(values) == 0 {
		values = cfg.Models
	}
	if len(values) == 0 {
		values = []string{cfg.Defaults.Model}
	}
	refs := make([]agent.ModelRef, 0, len(values))
	for _, value := range values {
		ref, err := agent.ParseModelRef(value, DefaultProvider)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

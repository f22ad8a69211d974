package spec

// Config is the on-disk .toolcount/config.yml document.
type Config struct {
	Version   int              `yaml:"version"`
	OutputDir string           `yaml:"output_dir"`
	Defaults  Defaults         `yaml:"defaults"`
	Providers []ProviderConfig `yaml:"providers"`
	Models    []string         `yaml:"models"`
}

// Defaults are the experiment settings applied when no flag overrides them.
type Defaults struct {
	Model             string `yaml:"model"`
	Experiments       int    `yaml:"experiments"`
	ToolName          string `yaml:"tool_name"`
	MaxSteps          int    `yaml:"max_steps"`
	MaxSeconds        int    `yaml:"max_seconds"`
	MaxTokens         int    `yaml:"max_tokens"`
	Concurrency       int    `yaml:"concurrency"`
	OnError           string `yaml:"on_error"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	TokensPerMinute   int    `yaml:"tokens_per_minute"`
}

// ProviderConfig points a provider id at an OpenAI-compatible endpoint.
type ProviderConfig struct {
	ID        string            `yaml:"id"`
	BaseURL   string            `yaml:"base_url"`
	APIKeyEnv string            `yaml:"api_key_env"`
	Headers   map[string]string `yaml:"headers"`
}

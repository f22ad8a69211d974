package agent

import (
	"fmt"
	"strings"
)

// SessionConfig captures the inputs needed to start an agent session.
type SessionConfig struct {
	Provider          string
	Model             string
	Instructions      string
	Tools             []ToolDefinition
	ParallelToolCalls bool
}

// ToolDefinition describes a callable tool exposed to the agent.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  *ToolSchema
}

// TurnContext holds contextual metadata used to build prompts.
type TurnContext struct {
	Provider          string
	Model             string
	Instructions      string
	Tools             []ToolDefinition
	ParallelToolCalls bool
}

// Prompt is the fully assembled request sent to a provider.
type Prompt struct {
	Instructions      string
	InputItems        []HistoryItem
	Tools             []ToolDefinition
	ParallelToolCalls bool
}

// Session tracks conversation history and context for a single trial.
type Session struct {
	Ctx     TurnContext
	History []HistoryItem
}

// StartSession initializes an empty session from the provided configuration.
func StartSession(config SessionConfig) (*Session, error) {
	model := strings.TrimSpace(config.Model)
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	seen := make(map[string]struct{}, len(config.Tools))
	for _, tool := range config.Tools {
		if strings.TrimSpace(tool.Name) == "" {
			return nil, fmt.Errorf("tool name is required")
		}
		if _, ok := seen[tool.Name]; ok {
			return nil, fmt.Errorf("duplicate tool %q", tool.Name)
		}
		seen[tool.Name] = struct{}{}
	}
	return &Session{
		Ctx: TurnContext{
			Provider:          strings.TrimSpace(config.Provider),
			Model:             model,
			Instructions:      strings.TrimSpace(config.Instructions),
			Tools:             config.Tools,
			ParallelToolCalls: config.ParallelToolCalls,
		},
	}, nil
}

// BuildPrompt assembles a provider prompt from context and history.
func BuildPrompt(ctx TurnContext, history []HistoryItem) Prompt {
	return Prompt{
		Instructions:      ctx.Instructions,
		InputItems:        history,
		Tools:             ctx.Tools,
		ParallelToolCalls: ctx.ParallelToolCalls && len(ctx.Tools) > 0,
	}
}

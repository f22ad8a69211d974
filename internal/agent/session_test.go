package agent

import "testing"

func TestStartSessionRequiresModel(t *testing.T) {
	if _, err := StartSession(SessionConfig{}); err == nil {
		t.Fatalf("expected model error")
	}
}

func TestStartSessionRejectsDuplicateTools(t *testing.T) {
	_, err := StartSession(SessionConfig{
		Model: "m",
		Tools: []ToolDefinition{{Name: "foo"}, {Name: "foo"}},
	})
	if err == nil {
		t.Fatalf("expected duplicate tool error")
	}
}

func TestStartSessionStartsEmpty(t *testing.T) {
	session, err := StartSession(SessionConfig{
		Provider:     " openrouter ",
		Model:        "model",
		Instructions: "  count things  ",
		Tools:        []ToolDefinition{CounterToolDefinition("foo")},
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if len(session.History) != 0 {
		t.Fatalf("expected empty history, got %d items", len(session.History))
	}
	if session.Ctx.Provider != "openrouter" || session.Ctx.Instructions != "count things" {
		t.Fatalf("unexpected context: %+v", session.Ctx)
	}
}

func TestBuildPromptForwardsContext(t *testing.T) {
	ctx := TurnContext{
		Instructions:      "base",
		Tools:             []ToolDefinition{{Name: "foo"}},
		ParallelToolCalls: true,
	}
	history := []HistoryItem{{Role: "user", Content: HistoryText{Text: "hello"}}}

	prompt := BuildPrompt(ctx, history)
	if prompt.Instructions != "base" {
		t.Fatalf("unexpected instructions: %q", prompt.Instructions)
	}
	if !prompt.ParallelToolCalls {
		t.Fatalf("expected parallel tool calls enabled")
	}
	if len(prompt.InputItems) != 1 || len(prompt.Tools) != 1 {
		t.Fatalf("expected history and tools forwarded")
	}
}

func TestBuildPromptParallelRequiresTools(t *testing.T) {
	prompt := BuildPrompt(TurnContext{ParallelToolCalls: true}, nil)
	if prompt.ParallelToolCalls {
		t.Fatalf("parallel tool calls need at least one tool")
	}
}

func TestApproxTokenCount(t *testing.T) {
	history := []HistoryItem{
		{Role: "user", Content: HistoryText{Text: "12345678"}},
	}
	// "user" + 8 characters = 12 characters.
	if got := ApproxTokenCount(history); got != 3 {
		t.Fatalf("expected 3 tokens, got %d", got)
	}
}

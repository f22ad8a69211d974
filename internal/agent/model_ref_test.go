package agent

import "testing"

func TestParseModelRef(t *testing.T) {
	cases := []struct {
		input    string
		provider string
		name     string
	}{
		{"openrouter:openai/gpt-4o-mini", "openrouter", "openai/gpt-4o-mini"},
		{"anthropic:claude-sonnet-4-20250514", "anthropic", "claude-sonnet-4-20250514"},
		{"ollama:llama3.1:8b", "ollama", "llama3.1:8b"},
		{"gpt-4o", "openai", "gpt-4o"},
		{"  openai : gpt-4o ", "openai", "gpt-4o"},
	}
	for _, tc := range cases {
		ref, err := ParseModelRef(tc.input, "openai")
		if err != nil {
			t.Fatalf("parse %q: %v", tc.input, err)
		}
		if ref.Provider != tc.provider || ref.Name != tc.name {
			t.Fatalf("parse %q: got %+v", tc.input, ref)
		}
	}
}

func TestParseModelRefErrors(t *testing.T) {
	for _, input := range []string{"", "openai:", ":gpt"} {
		if _, err := ParseModelRef(input, "openai"); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
	if _, err := ParseModelRef("gpt", ""); err == nil {
		t.Fatalf("expected error without default provider")
	}
}

func TestModelRefString(t *testing.T) {
	if got := (ModelRef{Provider: "ollama", Name: "llama3:8b"}).String(); got != "ollama:llama3:8b" {
		t.Fatalf("unexpected string: %q", got)
	}
}

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDoer abstracts HTTP clients used by providers.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProviderConfig is the explicit connection configuration for one model endpoint.
type ProviderConfig struct {
	ID      string
	BaseURL string
	APIKey  string
	Model   string
	Headers map[string]string
}

// ChatProvider implements Provider for OpenAI-compatible chat-completions APIs
// (OpenRouter, OpenAI, Anthropic's compatibility endpoint, Ollama).
type ChatProvider struct {
	ID      string
	APIKey  string
	BaseURL string
	Client  HTTPDoer
	Model   string
	Headers map[string]string
}

// APIError reports a non-2xx response or an error frame inside the stream.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the failure is a rate limit or server-side error.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NewChatProvider constructs a provider with explicit settings.
func NewChatProvider(cfg ProviderConfig, client HTTPDoer) (*ChatProvider, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base url is required for provider %q", cfg.ID)
	}
	if client == nil {
		client = http.DefaultClient
	}
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		id = "provider"
	}
	return &ChatProvider{
		ID:      id,
		APIKey:  strings.TrimSpace(cfg.APIKey),
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Client:  client,
		Model:   cfg.Model,
		Headers: cfg.Headers,
	}, nil
}

// Stream sends a prompt to the chat-completions endpoint and returns a stream of events.
func (p *ChatProvider) Stream(ctx context.Context, prompt Prompt) (Stream, error) {
	messages, err := buildChatMessages(prompt)
	if err != nil {
		return nil, err
	}
	requestBody := chatRequest{
		Model:    p.Model,
		Stream:   true,
		Messages: messages,
	}
	if len(prompt.Tools) > 0 {
		requestBody.Tools = buildChatTools(prompt.Tools)
		requestBody.ToolChoice = "auto"
		parallel := prompt.ParallelToolCalls
		requestBody.ParallelToolCalls = &parallel
	}
	payload, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := p.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for key, value := range p.Headers {
		req.Header.Set(key, value)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &APIError{Provider: p.ID, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	events, err := parseChatStream(p.ID, resp.Body)
	if err != nil {
		return nil, err
	}
	return &staticStream{events: events}, nil
}

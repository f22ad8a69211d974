package agent

import (
	"context"
	"encoding/json"

	"toolcount/internal/tools"
)

// StreamEventType identifies streamed event kinds.
type StreamEventType int

const (
	StreamEventMessage StreamEventType = iota
	StreamEventToolCall
)

// StreamEvent carries either a message or tool call from the model stream.
type StreamEvent struct {
	Type     StreamEventType
	Message  string
	ToolCall ToolCall
}

// Stream yields incremental model events and returns io.EOF when drained.
type Stream interface {
	Recv() (StreamEvent, error)
}

// Provider streams model responses for a prompt.
type Provider interface {
	Stream(ctx context.Context, prompt Prompt) (Stream, error)
}

// ToolCallArgs holds decoded JSON arguments for a tool call.
type ToolCallArgs map[string]json.RawMessage

// ToolCall describes a tool invocation emitted by the model.
type ToolCall struct {
	ID   string
	Name string
	Args ToolCallArgs
}

// ToolOutput represents the result of a tool invocation.
type ToolOutput struct {
	ToolCallID string
	Result     tools.CallResult
}

// ToolExecutor executes tool calls.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) tools.CallResult
}

// TokenCounter estimates token usage for a history slice.
type TokenCounter func(history []HistoryItem) int

// HistoryContent represents a single typed content item in a turn.
type HistoryContent interface {
	historyContent()
}

// HistoryText holds plain text content for a history item.
type HistoryText struct {
	Text string
}

func (HistoryText) historyContent() {}
func (ToolCall) historyContent()    {}
func (ToolOutput) historyContent()  {}

// HistoryItem captures a single turn item with a role and typed content.
type HistoryItem struct {
	Role    string
	Content HistoryContent
}

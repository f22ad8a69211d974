package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// chatRequest is the JSON payload sent to a chat-completions endpoint.
type chatRequest struct {
	Model             string        `json:"model"`
	Stream            bool          `json:"stream"`
	Messages          []chatMessage `json:"messages"`
	Tools             []chatTool    `json:"tools,omitempty"`
	ToolChoice        string        `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool         `json:"parallel_tool_calls,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatTool struct {
	Type     string                 `json:"type"`
	Function chatFunctionDefinition `json:"function"`
}

type chatFunctionDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  *ToolSchema `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

type chatFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// buildChatMessages converts a prompt into chat message payloads.
// The loop records every tool call of a response before its outputs, so the
// calls sit next to each other in history; they are merged into one assistant
// message followed by the tool results.
func buildChatMessages(prompt Prompt) ([]chatMessage, error) {
	messages := make([]chatMessage, 0, len(prompt.InputItems)+1)
	if strings.TrimSpace(prompt.Instructions) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt.Instructions})
	}
	for _, item := range prompt.InputItems {
		msg, err := toChatMessage(item)
		if err != nil {
			return nil, err
		}
		if msg.Role == "" {
			continue
		}
		if len(msg.ToolCalls) > 0 && len(messages) > 0 {
			last := &messages[len(messages)-1]
			if last.Role == "assistant" && len(last.ToolCalls) > 0 {
				last.ToolCalls = append(last.ToolCalls, msg.ToolCalls...)
				continue
			}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// toChatMessage converts a history item into a chat message.
func toChatMessage(item HistoryItem) (chatMessage, error) {
	role := item.Role
	if role == "developer" {
		role = "system"
	}
	switch content := item.Content.(type) {
	case HistoryText:
		return chatMessage{Role: role, Content: content.Text}, nil
	case ToolCall:
		args := content.Args
		if args == nil {
			args = ToolCallArgs{}
		}
		payload, err := json.Marshal(args)
		if err != nil {
			return chatMessage{}, fmt.Errorf("marshal tool args: %w", err)
		}
		if content.ID == "" {
			return chatMessage{}, fmt.Errorf("tool call id is required")
		}
		return chatMessage{
			Role: role,
			ToolCalls: []chatToolCall{{
				ID:   content.ID,
				Type: "function",
				Function: chatFunctionCall{
					Name:      content.Name,
					Arguments: string(payload),
				},
			}},
		}, nil
	case ToolOutput:
		return chatMessage{
			Role:       "tool",
			Content:    content.Result.Output,
			ToolCallID: content.ToolCallID,
		}, nil
	default:
		return chatMessage{}, fmt.Errorf("unsupported history content type %T", item.Content)
	}
}

// buildChatTools converts tool definitions into function tool payloads.
func buildChatTools(defs []ToolDefinition) []chatTool {
	tools := make([]chatTool, 0, len(defs))
	for _, def := range defs {
		params := def.Parameters
		if params == nil {
			params = NoArguments(false)
		}
		tools = append(tools, chatTool{
			Type: "function",
			Function: chatFunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

package agent

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// chatStreamChunk is a partial SSE payload.
type chatStreamChunk struct {
	Choices []chatStreamChoice `json:"choices"`
	Error   *chatStreamError   `json:"error,omitempty"`
}

type chatStreamError struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
}

type chatStreamChoice struct {
	Delta        chatStreamDelta `json:"delta"`
	FinishReason string          `json:"finish_reason"`
}

type chatStreamDelta struct {
	Content   string               `json:"content"`
	ToolCalls []chatStreamToolCall `json:"tool_calls"`
}

type chatStreamToolCall struct {
	Index    int              `json:"index"`
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

// toolCallAccumulator gathers streaming tool call fragments.
type toolCallAccumulator struct {
	ID        string
	Name      string
	Arguments strings.Builder
}

// parseChatStream reads SSE output and converts it into stream events.
// Text deltas collapse into one message event; tool calls are emitted in index order.
func parseChatStream(providerID string, reader io.Reader) ([]StreamEvent, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var content strings.Builder
	accumulators := make(map[int]*toolCallAccumulator)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, fmt.Errorf("parse stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return nil, &APIError{Provider: providerID, Message: strings.TrimSpace(chunk.Error.Message)}
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				content.WriteString(choice.Delta.Content)
			}
			for _, call := range choice.Delta.ToolCalls {
				acc := accumulators[call.Index]
				if acc == nil {
					acc = &toolCallAccumulator{}
					accumulators[call.Index] = acc
				}
				if call.ID != "" {
					acc.ID = call.ID
				}
				if call.Function.Name != "" {
					acc.Name = call.Function.Name
				}
				if call.Function.Arguments != "" {
					acc.Arguments.WriteString(call.Function.Arguments)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	events := make([]StreamEvent, 0, len(accumulators)+1)
	if content.Len() > 0 {
		events = append(events, StreamEvent{Type: StreamEventMessage, Message: content.String()})
	}

	indices := make([]int, 0, len(accumulators))
	for index := range accumulators {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	for _, index := range indices {
		acc := accumulators[index]
		args, err := decodeToolArguments(acc.Arguments.String())
		if err != nil {
			return nil, fmt.Errorf("parse tool arguments for %s: %w", acc.Name, err)
		}
		events = append(events, StreamEvent{
			Type: StreamEventToolCall,
			ToolCall: ToolCall{
				ID:   acc.ID,
				Name: acc.Name,
				Args: args,
			},
		})
	}
	return events, nil
}

// decodeToolArguments tolerates the empty string some models send for zero-argument tools.
func decodeToolArguments(raw string) (ToolCallArgs, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return ToolCallArgs{}, nil
	}
	var args ToolCallArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// staticStream exposes a slice of events as a Stream.
type staticStream struct {
	events []StreamEvent
	index  int
}

// Recv returns the next event or io.EOF when complete.
func (s *staticStream) Recv() (StreamEvent, error) {
	if s.index >= len(s.events) {
		return StreamEvent{}, io.EOF
	}
	event := s.events[s.index]
	s.index++
	return event, nil
}

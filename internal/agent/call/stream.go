package call

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"toolcount/internal/agent"
)

// consumeStream appends one streamed response to the session history and runs
// every tool it requests. It returns the text of this response only and
// whether any tool ran, which means the model expects another round trip.
// All tool calls of a response enter history before their outputs.
func consumeStream(ctx context.Context, session *agent.Session, stream agent.Stream, executor agent.ToolExecutor, metrics *RunMetrics, trace tracer) (string, bool, error) {
	var (
		text  strings.Builder
		calls []agent.ToolCall
	)
	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return text.String(), false, err
		}
		switch event.Type {
		case agent.StreamEventMessage:
			session.History = append(session.History, agent.HistoryItem{Role: "assistant", Content: agent.HistoryText{Text: event.Message}})
			trace.block("LLM output", styleOutput, stylePlain, func(bool) string { return event.Message })
			text.WriteString(event.Message)
		case agent.StreamEventToolCall:
			if executor == nil {
				return text.String(), false, fmt.Errorf("model requested tool %q but no executor is configured", event.ToolCall.Name)
			}
			tc := event.ToolCall
			if tc.ID == "" {
				tc.ID = "call_" + uuid.NewString()
			}
			calls = append(calls, tc)
		default:
			return text.String(), false, fmt.Errorf("unknown stream event type: %d", event.Type)
		}
	}
	for _, tc := range calls {
		trace.line(styleToolCall, fmt.Sprintf("Tool call id=%s name=%s args=%s", tc.ID, tc.Name, argsJSON(tc.Args)))
		session.History = append(session.History, agent.HistoryItem{Role: "assistant", Content: tc})
	}
	for _, tc := range calls {
		runTool(ctx, session, executor, tc, metrics, trace)
	}
	return text.String(), len(calls) > 0, nil
}

// runTool executes one tool call and records its output in history.
func runTool(ctx context.Context, session *agent.Session, executor agent.ToolExecutor, tc agent.ToolCall, metrics *RunMetrics, trace tracer) {
	result := executor.Execute(ctx, tc)
	session.History = append(session.History, agent.HistoryItem{Role: "tool", Content: agent.ToolOutput{ToolCallID: tc.ID, Result: result}})
	header := fmt.Sprintf("Tool result id=%s name=%s duration=%s bytes=%d error=%s",
		tc.ID, result.Tool, result.Duration, result.OutputBytes, result.Error)
	trace.block(header, styleToolResult, stylePlain, func(full bool) string {
		if full {
			return result.Output
		}
		return firstLines(result.Output, consoleToolLines)
	})
	metrics.ToolCalls[tc.Name]++
}

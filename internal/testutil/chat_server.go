package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ScriptedModel describes how a fake chat-completions model behaves in one conversation:
// it calls the first offered tool Calls times, one call per response, then answers with Answer.
// Answer may contain %d, which is replaced with ReportedCount (or Calls when ReportedCount is nil).
type ScriptedModel struct {
	Calls         int
	ReportedCount *int
	Answer        string
	// FailStatus, when non-zero, makes every request fail with that HTTP status.
	FailStatus int
}

// ChatServer is an httptest server speaking the streaming chat-completions protocol.
type ChatServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests int
	convos   map[string]int
}

// NewChatServer starts a fake endpoint. script picks behavior per model and conversation;
// conversations are numbered from 0 per model in order of their first request, and the
// number is carried in the tool call ids so concurrent conversations stay apart.
func NewChatServer(t testing.TB, script func(model string, conversation int) ScriptedModel) *ChatServer {
	t.Helper()
	s := &ChatServer{convos: map[string]int{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handle(w, r, script)
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests reports how many completions were requested.
func (s *ChatServer) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role      string `json:"role"`
		ToolCalls []struct {
			ID string `json:"id"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"tools"`
}

// conversationOf recovers the conversation number encoded in earlier tool call ids.
func conversationOf(req chatRequest) (int, bool) {
	for _, msg := range req.Messages {
		for _, call := range msg.ToolCalls {
			var conversation, step int
			if _, err := fmt.Sscanf(call.ID, "conv%d_call%d", &conversation, &step); err == nil {
				return conversation, true
			}
		}
	}
	return 0, false
}

func (s *ChatServer) handle(w http.ResponseWriter, r *http.Request, script func(string, int) ScriptedModel) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	toolResults := 0
	for _, msg := range req.Messages {
		if msg.Role == "tool" {
			toolResults++
		}
	}

	s.mu.Lock()
	s.requests++
	conversation, ok := conversationOf(req)
	if !ok {
		conversation = s.convos[req.Model]
		s.convos[req.Model]++
	}
	s.mu.Unlock()

	model := script(req.Model, conversation)
	if model.FailStatus != 0 {
		http.Error(w, `{"error":{"message":"scripted failure"}}`, model.FailStatus)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	if toolResults < model.Calls && len(req.Tools) > 0 {
		name := req.Tools[0].Function.Name
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"conv%d_call%d\",\"type\":\"function\",\"function\":{\"name\":%q,\"arguments\":\"{}\"}}]}}]}\n\n", conversation, toolResults+1, name)
		fmt.Fprint(w, "data: [DONE]\n\n")
		return
	}
	answer := model.Answer
	if strings.Contains(answer, "%d") {
		reported := model.Calls
		if model.ReportedCount != nil {
			reported = *model.ReportedCount
		}
		answer = fmt.Sprintf(answer, reported)
	}
	payload, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"delta": map[string]string{"content": answer}}},
	})
	fmt.Fprintf(w, "data: %s\n\n", payload)
	fmt.Fprint(w, "data: [DONE]\n\n")
}

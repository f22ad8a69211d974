package runner

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"toolcount/internal/agent"
	"toolcount/pkg/ratelimiter"
)

// trialPlan scripts one conversation: calls tool invocations, then answer.
// %d in answer is replaced with calls. A non-nil err fails the first request.
type trialPlan struct {
	calls  int
	answer string
	err    error
}

// scriptedProvider plays trialPlans in conversation start order; the last
// plan repeats. The conversation number rides in the tool call ids.
type scriptedProvider struct {
	mu       sync.Mutex
	plans    []trialPlan
	started  int
	requests int
	prompts  []agent.Prompt
}

func newScriptedProvider(plans ...trialPlan) *scriptedProvider {
	return &scriptedProvider{plans: plans}
}

func (p *scriptedProvider) Stream(ctx context.Context, prompt agent.Prompt) (agent.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outputs := 0
	conversation := -1
	for _, item := range prompt.InputItems {
		switch content := item.Content.(type) {
		case agent.ToolOutput:
			outputs++
		case agent.ToolCall:
			if conversation < 0 {
				var step int
				fmt.Sscanf(content.ID, "t%d_%d", &conversation, &step)
			}
		}
	}
	p.mu.Lock()
	p.requests++
	p.prompts = append(p.prompts, prompt)
	if conversation < 0 {
		conversation = p.started
		p.started++
	}
	plan := p.plans[min(conversation, len(p.plans)-1)]
	p.mu.Unlock()

	if plan.err != nil {
		return nil, plan.err
	}
	if outputs < plan.calls {
		return &eventStream{events: []agent.StreamEvent{{
			Type:     agent.StreamEventToolCall,
			ToolCall: agent.ToolCall{ID: fmt.Sprintf("t%d_%d", conversation, outputs+1), Name: prompt.Tools[0].Name},
		}}}, nil
	}
	answer := strings.ReplaceAll(plan.answer, "%d", strconv.Itoa(plan.calls))
	return &eventStream{events: []agent.StreamEvent{{Type: agent.StreamEventMessage, Message: answer}}}, nil
}

func (p *scriptedProvider) Started() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *scriptedProvider) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}

type eventStream struct {
	events []agent.StreamEvent
	index  int
}

func (s *eventStream) Recv() (agent.StreamEvent, error) {
	if s.index >= len(s.events) {
		return agent.StreamEvent{}, io.EOF
	}
	event := s.events[s.index]
	s.index++
	return event, nil
}

func exact(calls int) trialPlan {
	return trialPlan{calls: calls, answer: "I called the tool %d times.\n<count>%d</count>"}
}

// recordingLimiter admits everything and records each reservation.
type recordingLimiter struct {
	mu       sync.Mutex
	reserves []ratelimiter.Reservation
}

func (l *recordingLimiter) Reserve(_ context.Context, req ratelimiter.Reservation) (ratelimiter.Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reserves = append(l.reserves, req)
	return ratelimiter.Decision{Allowed: true}, nil
}

func (l *recordingLimiter) Complete(context.Context, string) error { return nil }

func (l *recordingLimiter) countKey(key ratelimiter.LimitKey) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, req := range l.reserves {
		for _, item := range req.Requirements {
			if item.Key == key {
				n++
			}
		}
	}
	return n
}

// recordingObserver captures every observer callback.
type recordingObserver struct {
	mu     sync.Mutex
	calls  []string
	events []TrialEvent
	models []ModelResult
}

func (o *recordingObserver) OnRunStart(runID string, models []string, experiments int) {
	o.record(fmt.Sprintf("run_start %d models x %d", len(models), experiments))
}

func (o *recordingObserver) OnModelStart(model string, experiments int) {
	o.record("model_start " + model)
}

func (o *recordingObserver) OnTrialEvent(event TrialEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) OnModelEnd(result ModelResult) {
	o.mu.Lock()
	o.models = append(o.models, result)
	o.mu.Unlock()
	o.record("model_end " + result.Model + " " + result.Status)
}

func (o *recordingObserver) OnRunEnd(results Results) {
	o.record("run_end")
}

func (o *recordingObserver) record(call string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, call)
}

func (o *recordingObserver) terminalEvents() map[int]TrialEventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := map[int]TrialEventType{}
	for _, event := range o.events {
		if event.Type.Terminal() {
			out[event.TrialIndex] = event.Type
		}
	}
	return out
}

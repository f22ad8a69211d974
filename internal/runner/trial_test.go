package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"toolcount/internal/agent"
	"toolcount/internal/agent/call"
	"toolcount/internal/testutil"
)

func testTrialConfig(provider agent.Provider) TrialConfig {
	return TrialConfig{
		Provider: provider,
		Model:    agent.ModelRef{Provider: "stub", Name: "model"},
	}
}

func TestRunTrialMatchesReportedCount(t *testing.T) {
	ctx := testutil.Context(t, 2*time.Second)
	trial, err := RunTrial(ctx, 0, testTrialConfig(newScriptedProvider(exact(7))))
	if err != nil {
		t.Fatalf("run trial: %v", err)
	}
	if trial.ActualCount != 7 || trial.Reported() != "7" || !trial.Matched {
		t.Fatalf("unexpected trial: %+v", trial)
	}
	if trial.Steps != 8 {
		t.Fatalf("expected 8 steps, got %d", trial.Steps)
	}
	if trial.ID == "" || trial.Model != "stub:model" {
		t.Fatalf("expected id and model, got %+v", trial)
	}
}

func TestRunTrialMismatch(t *testing.T) {
	ctx := testutil.Context(t, 2*time.Second)
	provider := newScriptedProvider(trialPlan{calls: 4, answer: "<count>5</count>"})
	trial, err := RunTrial(ctx, 0, testTrialConfig(provider))
	if err != nil {
		t.Fatalf("run trial: %v", err)
	}
	if trial.ActualCount != 4 || trial.Reported() != "5" || trial.Matched {
		t.Fatalf("unexpected trial: %+v", trial)
	}
}

func TestRunTrialUnreported(t *testing.T) {
	ctx := testutil.Context(t, 2*time.Second)
	provider := newScriptedProvider(trialPlan{calls: 3, answer: "I called it a few times."})
	trial, err := RunTrial(ctx, 0, testTrialConfig(provider))
	if err != nil {
		t.Fatalf("parse failures must not error, got %v", err)
	}
	if trial.ReportedCount != nil || trial.Reported() != Unreported || trial.Matched {
		t.Fatalf("expected unreported trial, got %+v", trial)
	}
	if trial.ActualCount != 3 {
		t.Fatalf("expected 3 actual calls, got %d", trial.ActualCount)
	}
}

// staleTextProvider narrates and calls the tool once, then sends an empty response.
type staleTextProvider struct{ calls int }

func (p *staleTextProvider) Stream(_ context.Context, prompt agent.Prompt) (agent.Stream, error) {
	p.calls++
	if p.calls > 1 {
		return &eventStream{}, nil
	}
	return &eventStream{events: []agent.StreamEvent{
		{Type: agent.StreamEventMessage, Message: "I'll call the tool 1 time."},
		{Type: agent.StreamEventToolCall, ToolCall: agent.ToolCall{ID: "c1", Name: prompt.Tools[0].Name}},
	}}, nil
}

func TestRunTrialEmptyFinalAnswerIsUnreported(t *testing.T) {
	ctx := testutil.Context(t, 2*time.Second)
	trial, err := RunTrial(ctx, 0, testTrialConfig(&staleTextProvider{}))
	if err != nil {
		t.Fatalf("run trial: %v", err)
	}
	if trial.ActualCount != 1 {
		t.Fatalf("expected one tool call, got %d", trial.ActualCount)
	}
	if trial.ReportedCount != nil || trial.Matched || trial.Answer != "" {
		t.Fatalf("expected unreported trial from an empty final answer, got %+v", trial)
	}
}

func TestRunTrialTokenBudget(t *testing.T) {
	ctx := testutil.Context(t, 2*time.Second)
	cfg := testTrialConfig(newScriptedProvider(exact(50)))
	cfg.TokenCounter = agent.ApproxTokenCount
	cfg.MaxTokens = 20
	trial, err := RunTrial(ctx, 0, cfg)
	if !errors.Is(err, call.ErrBudgetExceeded) {
		t.Fatalf("expected budget error, got %v", err)
	}
	if trial.FailureReason != "budget_exceeded" || trial.Matched {
		t.Fatalf("unexpected trial: %+v", trial)
	}
}

func TestRunTrialZeroCalls(t *testing.T) {
	ctx := testutil.Context(t, 2*time.Second)
	trial, err := RunTrial(ctx, 0, testTrialConfig(newScriptedProvider(exact(0))))
	if err != nil {
		t.Fatalf("run trial: %v", err)
	}
	if trial.ActualCount != 0 || !trial.Matched {
		t.Fatalf("expected matched zero-call trial, got %+v", trial)
	}
}

func TestRunTrialLoopCap(t *testing.T) {
	ctx := testutil.Context(t, 2*time.Second)
	cfg := testTrialConfig(newScriptedProvider(exact(1000)))
	cfg.MaxSteps = 5
	trial, err := RunTrial(ctx, 2, cfg)
	if !errors.Is(err, call.ErrLoopCapExceeded) {
		t.Fatalf("expected loop cap error, got %v", err)
	}
	var invocationErr *InvocationError
	if !errors.As(err, &invocationErr) {
		t.Fatalf("expected InvocationError, got %T", err)
	}
	if invocationErr.Index != 2 || invocationErr.ActualCount != 5 {
		t.Fatalf("unexpected invocation error: %+v", invocationErr)
	}
	if !trial.Failed() || trial.Matched || trial.ReportedCount != nil {
		t.Fatalf("failed trial must not match, got %+v", trial)
	}
	if trial.FailureReason != "loop_cap_exceeded" {
		t.Fatalf("unexpected failure reason %q", trial.FailureReason)
	}
}

func TestRunTrialProviderError(t *testing.T) {
	ctx := testutil.Context(t, 2*time.Second)
	boom := errors.New("boom")
	_, err := RunTrial(ctx, 0, testTrialConfig(newScriptedProvider(trialPlan{err: boom})))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "trial 1 (stub:model)") {
		t.Fatalf("expected trial context in error, got %q", err.Error())
	}
}

func TestRunTrialRequiresProvider(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	_, err := RunTrial(ctx, 0, TrialConfig{Model: agent.ModelRef{Provider: "stub", Name: "m"}})
	if err == nil {
		t.Fatalf("expected error without provider")
	}
}

func TestRunTrialUsesConfiguredToolName(t *testing.T) {
	ctx := testutil.Context(t, 2*time.Second)
	provider := newScriptedProvider(exact(2))
	cfg := testTrialConfig(provider)
	cfg.ToolName = "bar"
	trial, err := RunTrial(ctx, 0, cfg)
	if err != nil {
		t.Fatalf("run trial: %v", err)
	}
	if trial.ActualCount != 2 {
		t.Fatalf("expected calls to bar to count, got %d", trial.ActualCount)
	}
	first := provider.prompts[0]
	if len(first.Tools) != 1 || first.Tools[0].Name != "bar" {
		t.Fatalf("expected tool bar, got %+v", first.Tools)
	}
	if !strings.Contains(first.Instructions, "'bar' tool") || !strings.Contains(first.Instructions, "<count>N</count>") {
		t.Fatalf("unexpected instructions: %q", first.Instructions)
	}
	if text, ok := first.InputItems[0].Content.(agent.HistoryText); !ok || text.Text != TrialPrompt {
		t.Fatalf("expected the trial prompt as first input, got %+v", first.InputItems)
	}
}

func TestRunTrialVerboseLogging(t *testing.T) {
	ctx := testutil.Context(t, 2*time.Second)
	var console, logFile bytes.Buffer
	cfg := testTrialConfig(newScriptedProvider(exact(1)))
	cfg.Verbose = true
	cfg.VerboseWriter = &console
	cfg.VerboseLogWriter = &logFile
	cfg.LogPrefix = "stub:model trial 1/1"
	if _, err := RunTrial(ctx, 0, cfg); err != nil {
		t.Fatalf("run trial: %v", err)
	}
	if !strings.Contains(console.String(), "reported=1 actual=1 matched=true") {
		t.Fatalf("expected metrics line, got:\n%s", console.String())
	}
	if !strings.Contains(logFile.String(), "[verbose] stub:model trial 1/1 reported=1") {
		t.Fatalf("expected log file line, got:\n%s", logFile.String())
	}
}

func TestRunTrialOverHTTP(t *testing.T) {
	ctx := testutil.Context(t, 5*time.Second)
	reported := 11
	server := testutil.NewChatServer(t, func(model string, conversation int) testutil.ScriptedModel {
		return testutil.ScriptedModel{Calls: 12, ReportedCount: &reported, Answer: "Done.\n<count>%d</count>"}
	})
	provider, err := agent.NewChatProvider(agent.ProviderConfig{ID: "local", BaseURL: server.URL, Model: "fake"}, server.Client())
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	trial, err := RunTrial(ctx, 0, TrialConfig{Provider: provider, Model: agent.ModelRef{Provider: "local", Name: "fake"}})
	if err != nil {
		t.Fatalf("run trial: %v", err)
	}
	if trial.ActualCount != 12 || trial.Reported() != "11" || trial.Matched {
		t.Fatalf("unexpected trial: %+v", trial)
	}
	if server.Requests() != 13 {
		t.Fatalf("expected 13 requests, got %d", server.Requests())
	}
}

package call

import (
	"context"
	"fmt"
	"time"

	"toolcount/internal/agent"
)

// RunCall drives one user turn: it streams a response, executes any requested
// tools, and repeats until the model answers without requesting a tool.
// Each provider round trip counts as one step against RunLimits.MaxSteps.
func RunCall(ctx context.Context, session *agent.Session, provider agent.Provider, executor agent.ToolExecutor, userText string, opts RunOptions) (CallResult, error) {
	start := time.Now()
	metrics := RunMetrics{ToolCalls: map[string]int{}}
	session.History = append(session.History, agent.HistoryItem{Role: "user", Content: agent.HistoryText{Text: userText}})

	output, err := loop(ctx, start, session, provider, executor, &metrics, opts, newTracer(opts))

	metrics.WallTime = time.Since(start)
	if opts.TokenCounter != nil {
		metrics.Tokens = opts.TokenCounter(session.History)
	}
	return CallResult{
		Output:        output,
		Metrics:       metrics,
		FailureReason: failureReasonForError(err),
	}, err
}

// loop returns the text of the last response it received. An earlier
// response's text never stands in for a final answer.
func loop(ctx context.Context, start time.Time, session *agent.Session, provider agent.Provider, executor agent.ToolExecutor, metrics *RunMetrics, opts RunOptions, trace tracer) (string, error) {
	output := ""
	for {
		if err := ctx.Err(); err != nil {
			return output, err
		}
		if err := checkLimits(start, opts.Limits, opts.TokenCounter, session.History, metrics.Steps); err != nil {
			trace.line(styleError, "Stopping: "+err.Error())
			return output, err
		}
		prompt := agent.BuildPrompt(session.Ctx, session.History)
		if trace.enabled() {
			trace.block(fmt.Sprintf("LLM prompt (step %d)", metrics.Steps+1), stylePrompt, styleDim, func(full bool) string {
				if full {
					return describePrompt(prompt, 0)
				}
				return describePrompt(prompt, consolePromptHistory)
			})
		}
		stream, err := provider.Stream(ctx, prompt)
		if err != nil {
			return output, err
		}
		metrics.Steps++
		text, calledTools, err := consumeStream(ctx, session, stream, executor, metrics, trace)
		output = text
		if err != nil || !calledTools {
			return output, err
		}
	}
}

package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolcount/internal/tools"
)

// CounterToolDescription is shown to the model alongside the counter tool.
const CounterToolDescription = "Call this tool once per counted invocation. It takes no arguments."

// CounterToolDefinition describes the zero-argument counter tool under the given name.
func CounterToolDefinition(name string) ToolDefinition {
	name = strings.TrimSpace(name)
	if name == "" {
		name = tools.DefaultToolName
	}
	return ToolDefinition{
		Name:        name,
		Description: CounterToolDescription,
		Parameters:  NoArguments(true),
	}
}

// CounterExecutor routes calls of the counter tool to a Counter.
// Calls to any other tool name fail and are not counted.
type CounterExecutor struct {
	Counter  *tools.Counter
	ToolName string
}

// Execute increments the counter when the call targets the counter tool.
func (e CounterExecutor) Execute(_ context.Context, call ToolCall) tools.CallResult {
	if e.Counter == nil {
		return tools.ErrorResult(call.Name, "counter is not configured", time.Now())
	}
	name := e.ToolName
	if name == "" {
		name = tools.DefaultToolName
	}
	if call.Name != name {
		return tools.ErrorResult(call.Name, fmt.Sprintf("unknown tool %q", call.Name), time.Now())
	}
	return e.Counter.Call(call.Name)
}

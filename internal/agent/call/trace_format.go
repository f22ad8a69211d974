package call

import (
	"encoding/json"
	"fmt"
	"strings"

	"toolcount/internal/agent"
)

// describePrompt renders a prompt for the trace. With lastItems > 0 only the
// most recent history items are listed.
func describePrompt(prompt agent.Prompt, lastItems int) string {
	var b strings.Builder
	if text := strings.TrimSpace(prompt.Instructions); text != "" {
		fmt.Fprintf(&b, "instructions:\n%s\n", prompt.Instructions)
	}
	if len(prompt.Tools) > 0 {
		names := make([]string, len(prompt.Tools))
		for i, tool := range prompt.Tools {
			names[i] = tool.Name
		}
		fmt.Fprintf(&b, "tools: %s\n", strings.Join(names, ", "))
	}
	items := prompt.InputItems
	if len(items) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	b.WriteString("input_items:\n")
	if lastItems > 0 && len(items) > lastItems {
		fmt.Fprintf(&b, "- ... %d earlier items omitted\n", len(items)-lastItems)
		items = items[len(items)-lastItems:]
	}
	for _, item := range items {
		b.WriteString("- " + item.Role + ": " + describeItem(item) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeItem(item agent.HistoryItem) string {
	switch content := item.Content.(type) {
	case agent.HistoryText:
		return content.Text
	case agent.ToolCall:
		return fmt.Sprintf("tool_call id=%s name=%s args=%s", content.ID, content.Name, argsJSON(content.Args))
	case agent.ToolOutput:
		return fmt.Sprintf("tool_output call_id=%s tool=%s error=%s output=%q",
			content.ToolCallID, content.Result.Tool, content.Result.Error, strings.TrimRight(content.Result.Output, "\n"))
	default:
		return fmt.Sprint(content)
	}
}

func argsJSON(args agent.ToolCallArgs) string {
	if len(args) == 0 {
		return "{}"
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return "<invalid args>"
	}
	return string(payload)
}

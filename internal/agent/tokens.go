package agent

import "encoding/json"

// ApproxTokenCount estimates token usage by dividing character count by four.
func ApproxTokenCount(history []HistoryItem) int {
	total := 0
	for _, item := range history {
		total += len(item.Role) + len(contentText(item.Content))
	}
	return total / 4
}

// ApproxPromptTokens estimates the size of a full prompt, including instructions and tools.
func ApproxPromptTokens(prompt Prompt) int {
	total := len(prompt.Instructions)
	for _, tool := range prompt.Tools {
		total += len(tool.Name) + len(tool.Description)
	}
	return total/4 + ApproxTokenCount(prompt.InputItems)
}

func contentText(content HistoryContent) string {
	switch value := content.(type) {
	case HistoryText:
		return value.Text
	case ToolCall:
		args := value.Args
		if args == nil {
			args = ToolCallArgs{}
		}
		raw, _ := json.Marshal(args)
		return value.ID + value.Name + string(raw)
	case ToolOutput:
		return value.ToolCallID + value.Result.Output
	default:
		return ""
	}
}

package agent

// ToolSchema is the JSON schema of a tool's parameters. Only object schemas
// with flat properties are needed here.
type ToolSchema struct {
	Type                 string                `json:"type,omitempty"`
	Description          string                `json:"description,omitempty"`
	Properties           map[string]ToolSchema `json:"properties"`
	Required             []string              `json:"required,omitempty"`
	AdditionalProperties *bool                 `json:"additionalProperties,omitempty"`
}

// NoArguments is the schema of a tool that takes no parameters. Strict
// rejects any argument the model invents.
func NoArguments(strict bool) *ToolSchema {
	schema := &ToolSchema{Type: "object", Properties: map[string]ToolSchema{}}
	if strict {
		closed := false
		schema.AdditionalProperties = &closed
	}
	return schema
}

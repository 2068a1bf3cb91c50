// file: internal/provider/prompt.go
package provider

import (
	"fmt"
	"strings"
)

// ToolSummary is the part of a tool the prompt mentions.
type ToolSummary struct {
	Name        string
	Description string
	Params      []string
}

const basePrompt = `You are an assistant for a video platform. You can describe and plan calls to the tools listed below.
Answer the user directly. When a tool would help, name it and give the JSON arguments you would pass.`

// SystemPrompt lists the available tools after the base instructions.
func SystemPrompt(tools []ToolSummary) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if len(tools) == 0 {
		b.WriteString("\n\nNo tools are currently available.")
		return b.String()
	}
	b.WriteString("\n\nAVAILABLE TOOLS:\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s", t.Name, t.Description)
		if len(t.Params) > 0 {
			fmt.Fprintf(&b, " (params: %s)", strings.Join(t.Params, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Package catalog turns the remote operation list into callable, validated tools.
// file: internal/mcp/catalog/catalog.go
package catalog

import (
	"github.com/dkoosis/muxmcp/internal/schema"
)

// Catalog is an insertion-ordered set of tools keyed by name.
// A later tool with an existing name replaces the earlier one in place.
type Catalog struct {
	order []string
	tools map[string]*Tool
}

func newCatalog(capacity int) *Catalog {
	return &Catalog{
		order: make([]string, 0, capacity),
		tools: make(map[string]*Tool, capacity),
	}
}

// put adds or replaces t. It reports whether a tool was replaced.
func (c *Catalog) put(t *Tool) bool {
	if _, exists := c.tools[t.ID]; exists {
		c.tools[t.ID] = t
		return true
	}
	c.order = append(c.order, t.ID)
	c.tools[t.ID] = t
	return false
}

// Get returns the tool with the given name.
func (c *Catalog) Get(name string) (*Tool, bool) {
	t, ok := c.tools[name]
	return t, ok
}

// Resolve finds a tool by its name or by the runtime-safe name used in LLM definitions.
func (c *Catalog) Resolve(name string) (*Tool, bool) {
	if t, ok := c.tools[name]; ok {
		return t, true
	}
	for _, id := range c.order {
		if schema.SanitizeToolName(schema.RuntimeAnthropic, id) == name {
			return c.tools[id], true
		}
	}
	return nil, false
}

// Names returns tool names in first-seen order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of tools.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Tools returns the tools in first-seen order.
func (c *Catalog) Tools() []*Tool {
	out := make([]*Tool, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.tools[id])
	}
	return out
}

// AnthropicDefinitions renders every tool for the Anthropic Messages API.
func (c *Catalog) AnthropicDefinitions() []AnthropicTool {
	out := make([]AnthropicTool, 0, len(c.order))
	for _, t := range c.Tools() {
		out = append(out, t.AnthropicDefinition())
	}
	return out
}

// OpenAIDefinitions renders every tool for OpenAI-compatible chat completions.
func (c *Catalog) OpenAIDefinitions() []OpenAITool {
	out := make([]OpenAITool, 0, len(c.order))
	for _, t := range c.Tools() {
		out = append(out, t.OpenAIDefinition())
	}
	return out
}

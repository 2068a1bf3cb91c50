// file: internal/mcp/catalog/tool.go
package catalog

import (
	"context"

	"github.com/dkoosis/muxmcp/internal/mcperror"
	"github.com/dkoosis/muxmcp/internal/schema"
	"github.com/dkoosis/muxmcp/internal/transport"
)

type invokeFunc func(ctx context.Context, args map[string]any) (*transport.RawOutput, error)

// Tool is one callable remote operation.
type Tool struct {
	// ID is the remote operation name.
	ID string
	// Description is the remote description or "<toolset> tool: <name>".
	Description string
	// Validator checks arguments before any round trip.
	Validator *schema.Validator

	invoke    invokeFunc
	connected func() bool
}

// Invoke validates args and calls the remote operation on the current session.
// Nil args are sent as an empty object. It never reconnects: without an active
// session it fails with mcperror.ErrNotConnected before args are checked.
// The remote result is returned unmodified.
func (t *Tool) Invoke(ctx context.Context, args map[string]any) (*transport.RawOutput, error) {
	if t.invoke == nil || (t.connected != nil && !t.connected()) {
		return nil, mcperror.NewNotConnectedError(t.ID)
	}
	if args == nil {
		args = map[string]any{}
	}
	if t.Validator != nil {
		if err := t.Validator.Validate(args); err != nil {
			return nil, mcperror.NewInvalidArgumentsError(t.ID, err)
		}
	}
	return t.invoke(ctx, args)
}

// AnthropicTool is a tool definition in the Anthropic Messages API format.
type AnthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// OpenAITool is a tool definition in the OpenAI chat-completions format.
type OpenAITool struct {
	Type     string         `json:"type"`
	Function OpenAIFunction `json:"function"`
}

// OpenAIFunction is the function part of an OpenAITool.
type OpenAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// AnthropicDefinition renders the tool for the Anthropic runtime.
func (t *Tool) AnthropicDefinition() AnthropicTool {
	return AnthropicTool{
		Name:        schema.SanitizeToolName(schema.RuntimeAnthropic, t.ID),
		Description: t.Description,
		InputSchema: t.parameters(),
	}
}

// OpenAIDefinition renders the tool for OpenAI-compatible runtimes.
func (t *Tool) OpenAIDefinition() OpenAITool {
	return OpenAITool{
		Type: "function",
		Function: OpenAIFunction{
			Name:        schema.SanitizeToolName(schema.RuntimeOpenAI, t.ID),
			Description: t.Description,
			Parameters:  t.parameters(),
		},
	}
}

func (t *Tool) parameters() map[string]any {
	if t.Validator == nil {
		return map[string]any{"type": "object"}
	}
	return t.Validator.Document()
}

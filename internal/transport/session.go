// Package transport owns the protocol session with the remote tool-provider process.
// file: internal/transport/session.go
package transport

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/dkoosis/muxmcp/internal/mcperror"
	"github.com/mark3labs/mcp-go/mcp"
)

// ClientInfo identifies this client during the handshake.
type ClientInfo struct {
	Name    string
	Version string
}

// Capabilities summarizes what the remote process reported during the handshake.
type Capabilities struct {
	ProtocolVersion string
	ServerName      string
	ServerVersion   string
	Tools           bool
	Instructions    string
}

// OperationDescriptor is one remote operation as advertised by the tool provider.
type OperationDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// RawOutput is the remote call result, unmodified.
type RawOutput struct {
	Result *mcp.CallToolResult
}

// IsError reports whether the remote flagged the result as a tool-level error.
func (o *RawOutput) IsError() bool {
	return o != nil && o.Result != nil && o.Result.IsError
}

// Text joins the text content blocks of the result.
func (o *RawOutput) Text() string {
	if o == nil || o.Result == nil {
		return ""
	}
	parts := make([]string, 0, len(o.Result.Content))
	for _, content := range o.Result.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Session is a bidirectional protocol session with the tool provider.
// Initialize must succeed before any other operation.
type Session interface {
	Initialize(ctx context.Context, info ClientInfo) (*Capabilities, error)
	ListOperations(ctx context.Context) ([]OperationDescriptor, error)
	InvokeOperation(ctx context.Context, name string, args map[string]any) (*RawOutput, error)
	// Close releases the session and its process. Safe to call more than once.
	Close() error
}

// ProtocolClient is the subset of the mcp-go client a ClientSession drives.
type ProtocolClient interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// ClientSession implements Session on top of an mcp-go client.
type ClientSession struct {
	client ProtocolClient
	logger logging.Logger

	mu          sync.RWMutex
	initialized bool
	closed      bool
}

var _ Session = (*ClientSession)(nil)

// NewClientSession wraps an mcp-go client. The client must already be started.
func NewClientSession(client ProtocolClient, logger logging.Logger) *ClientSession {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &ClientSession{
		client: client,
		logger: logger.WithField("component", "transport_session"),
	}
}

// Initialize performs the protocol handshake. It may run only once per session.
func (s *ClientSession) Initialize(ctx context.Context, info ClientInfo) (*Capabilities, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, mcperror.NewNotInitializedError("initialize on closed session")
	}
	if s.initialized {
		return nil, errors.New("session already initialized")
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: info.Name, Version: info.Version}
	req.Params.Capabilities = mcp.ClientCapabilities{}

	result, err := s.client.Initialize(ctx, req)
	if err != nil {
		return nil, errors.Wrap(mcperror.FromContext("initialize", err), "initialize handshake failed")
	}

	s.initialized = true
	caps := &Capabilities{
		ProtocolVersion: result.ProtocolVersion,
		ServerName:      result.ServerInfo.Name,
		ServerVersion:   result.ServerInfo.Version,
		Tools:           result.Capabilities.Tools != nil,
		Instructions:    result.Instructions,
	}
	s.logger.Debug("Session initialized.", "server", caps.ServerName, "server_version", caps.ServerVersion, "protocol", caps.ProtocolVersion)
	return caps, nil
}

func (s *ClientSession) ready(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized || s.closed {
		return mcperror.NewNotInitializedError(op)
	}
	return nil
}

// ListOperations returns every remote operation, following pagination cursors.
func (s *ClientSession) ListOperations(ctx context.Context) ([]OperationDescriptor, error) {
	if err := s.ready("tools/list"); err != nil {
		return nil, err
	}

	var ops []OperationDescriptor
	var cursor mcp.Cursor
	for {
		req := mcp.ListToolsRequest{}
		req.Params.Cursor = cursor
		result, err := s.client.ListTools(ctx, req)
		if err != nil {
			return nil, errors.Wrap(mcperror.FromContext("tools/list", err), "list tools failed")
		}
		for _, tool := range result.Tools {
			ops = append(ops, describe(tool))
		}
		if result.NextCursor == "" || result.NextCursor == cursor {
			break
		}
		cursor = result.NextCursor
	}

	s.logger.Debug("Listed remote operations.", "count", len(ops))
	return ops, nil
}

// describe converts an mcp.Tool into a descriptor with a generic schema map.
// The tool's own JSON encoding is used so raw and structured schemas are handled alike.
func describe(tool mcp.Tool) OperationDescriptor {
	desc := OperationDescriptor{Name: tool.Name, Description: tool.Description}

	raw, err := json.Marshal(tool)
	if err != nil {
		return desc
	}
	var encoded struct {
		InputSchema map[string]any `json:"inputSchema"`
	}
	if err := json.Unmarshal(raw, &encoded); err == nil {
		desc.InputSchema = encoded.InputSchema
	}
	return desc
}

// InvokeOperation calls a remote operation with args forwarded verbatim.
func (s *ClientSession) InvokeOperation(ctx context.Context, name string, args map[string]any) (*RawOutput, error) {
	if err := s.ready("tools/call"); err != nil {
		return nil, err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(mcperror.FromContext("tools/call "+name, err), "call %q failed", name)
	}
	return &RawOutput{Result: result}, nil
}

// Close shuts the session down. Later calls return nil.
func (s *ClientSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.initialized = false
	s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return errors.Wrap(err, "close session")
	}
	s.logger.Debug("Session closed.")
	return nil
}

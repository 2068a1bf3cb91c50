// file: internal/transport/session_test.go
package transport

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/mcperror"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *server.MCPServer {
	srv := server.NewMCPServer("mux-test", "0.0.1", server.WithToolCapabilities(true))
	srv.AddTool(
		mcp.NewTool("list_assets",
			mcp.WithDescription("List video assets."),
			mcp.WithString("status", mcp.Required(), mcp.Description("Asset status filter.")),
			mcp.WithNumber("limit"),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			raw, _ := json.Marshal(req.GetArguments())
			return mcp.NewToolResultText(string(raw)), nil
		},
	)
	srv.AddTool(
		mcp.NewTool("delete_asset"),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("asset not found"), nil
		},
	)
	return srv
}

func newTestSession(t *testing.T) Session {
	t.Helper()
	spawner := NewInProcessSpawner(newTestServer(), nil)
	sess, err := spawner.Spawn(context.Background(), SpawnSpec{Command: "npx"})
	require.NoError(t, err, "Spawning in-process session should succeed.")
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestSession_OperationsBeforeInitialize(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	_, err := sess.ListOperations(ctx)
	assert.True(t, errors.Is(err, mcperror.ErrNotInitialized), "List before initialize must fail with NotInitialized.")

	_, err = sess.InvokeOperation(ctx, "list_assets", map[string]any{})
	assert.True(t, errors.Is(err, mcperror.ErrNotInitialized), "Invoke before initialize must fail with NotInitialized.")
}

func TestSession_InitializeListInvoke(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	caps, err := sess.Initialize(ctx, ClientInfo{Name: "muxmcp", Version: "test"})
	require.NoError(t, err)
	assert.Equal(t, "mux-test", caps.ServerName)
	assert.True(t, caps.Tools)

	_, err = sess.Initialize(ctx, ClientInfo{Name: "muxmcp"})
	assert.Error(t, err, "Second initialize must fail.")

	ops, err := sess.ListOperations(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	byName := make(map[string]OperationDescriptor)
	for _, op := range ops {
		byName[op.Name] = op
	}
	list := byName["list_assets"]
	assert.Equal(t, "List video assets.", list.Description)
	require.NotNil(t, list.InputSchema)
	assert.Equal(t, "object", list.InputSchema["type"])
	props, ok := list.InputSchema["properties"].(map[string]any)
	require.True(t, ok, "inputSchema.properties should decode as an object.")
	assert.Contains(t, props, "status")
	assert.Contains(t, props, "limit")

	out, err := sess.InvokeOperation(ctx, "list_assets", map[string]any{"status": "ready", "extra": true})
	require.NoError(t, err)
	assert.False(t, out.IsError())
	assert.JSONEq(t, `{"status":"ready","extra":true}`, out.Text(), "Arguments must be forwarded verbatim.")

	out, err = sess.InvokeOperation(ctx, "delete_asset", nil)
	require.NoError(t, err, "Tool-level errors are results, not transport errors.")
	assert.True(t, out.IsError())
	assert.Equal(t, "asset not found", out.Text())
}

func TestSession_CloseIdempotent(t *testing.T) {
	never := newTestSession(t)
	assert.NoError(t, never.Close(), "Close on a never-initialized session should succeed.")
	assert.NoError(t, never.Close())

	sess := newTestSession(t)
	ctx := context.Background()
	_, err := sess.Initialize(ctx, ClientInfo{Name: "muxmcp"})
	require.NoError(t, err)
	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	_, err = sess.ListOperations(ctx)
	assert.True(t, errors.Is(err, mcperror.ErrNotInitialized), "Closed session must reject operations.")
}

func TestRawOutput_NilSafe(t *testing.T) {
	var out *RawOutput
	assert.Equal(t, "", out.Text())
	assert.False(t, out.IsError())
}

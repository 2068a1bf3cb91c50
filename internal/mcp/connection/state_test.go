// internal/mcp/connection/state_test.go
package connection

import (
	"context"
	"testing"

	"github.com/dkoosis/muxmcp/internal/fsm"
	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/dkoosis/muxmcp/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachine_ConnectSucceededNeedsSession(t *testing.T) {
	var transitions []fsm.Event
	machine, err := newStateMachine(logging.GetNoopLogger(), func(_, _ State, event fsm.Event) {
		transitions = append(transitions, event)
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, machine.Transition(ctx, EventConnect, nil))
	assert.Error(t, machine.Transition(ctx, EventConnectSucceeded, nil), "No session was staged.")
	assert.Equal(t, StateConnecting, machine.CurrentState())

	var noSession transport.Session
	assert.Error(t, machine.Transition(ctx, EventConnectSucceeded, noSession))

	sess, err := transport.NewInProcessSpawner(newTestServer(), nil).Spawn(ctx, transport.SpawnSpec{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	require.NoError(t, machine.Transition(ctx, EventConnectSucceeded, sess))
	assert.Equal(t, StateConnected, machine.CurrentState())
	assert.Equal(t, []fsm.Event{EventConnect, EventConnectSucceeded}, transitions)
}

func TestStateMachine_DisconnectFromAnyActiveState(t *testing.T) {
	machine, err := newStateMachine(nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.False(t, machine.CanTransition(EventDisconnect), "Nothing to tear down while disconnected.")

	require.NoError(t, machine.Transition(ctx, EventConnect, nil))
	assert.Error(t, machine.Transition(ctx, EventConnect, nil), "Only one attempt at a time.")
	require.NoError(t, machine.Transition(ctx, EventDisconnect, nil))
	assert.Equal(t, StateDisconnected, machine.CurrentState())

	require.NoError(t, machine.Transition(ctx, EventConnect, nil))
	require.NoError(t, machine.Transition(ctx, EventConnectFailed, nil))
	assert.Equal(t, StateDisconnected, machine.CurrentState())
}

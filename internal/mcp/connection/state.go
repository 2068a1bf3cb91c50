// file: internal/mcp/connection/state.go
package connection

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/fsm"
	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/dkoosis/muxmcp/internal/transport"
)

// State is the lifecycle state of the managed connection.
type State = fsm.State

const (
	// StateDisconnected means no session exists.
	StateDisconnected State = "disconnected"

	// StateConnecting means exactly one connect attempt is in flight.
	StateConnecting State = "connecting"

	// StateConnected means a handshaken session is available.
	StateConnected State = "connected"
)

// Lifecycle events.
const (
	EventConnect          fsm.Event = "connect"
	EventConnectSucceeded fsm.Event = "connect_succeeded"
	EventConnectFailed    fsm.Event = "connect_failed"
	EventDisconnect       fsm.Event = "disconnect"
)

// newStateMachine builds the connection lifecycle machine.
func newStateMachine(logger logging.Logger, observer fsm.StateObserver) (fsm.FSM, error) {
	machine := fsm.NewFSM(StateDisconnected, logger)

	machine.AddTransition(fsm.Transition{
		From:  []fsm.State{StateDisconnected},
		Event: EventConnect,
		To:    StateConnecting,
	})
	machine.AddTransition(fsm.Transition{
		From:      []fsm.State{StateConnecting},
		Event:     EventConnectSucceeded,
		To:        StateConnected,
		Condition: sessionStaged,
	})
	machine.AddTransition(fsm.Transition{
		From:  []fsm.State{StateConnecting},
		Event: EventConnectFailed,
		To:    StateDisconnected,
	})
	machine.AddTransition(fsm.Transition{
		From:  []fsm.State{StateConnecting, StateConnected},
		Event: EventDisconnect,
		To:    StateDisconnected,
	})
	machine.OnTransition(observer)

	if err := machine.Build(); err != nil {
		return nil, errors.Wrap(err, "failed to build connection state machine")
	}
	return machine, nil
}

// sessionStaged refuses connect_succeeded unless the event carries the new session.
func sessionStaged(_ context.Context, _ fsm.Event, data interface{}) bool {
	sess, ok := data.(transport.Session)
	return ok && sess != nil
}

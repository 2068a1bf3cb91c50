// file: internal/fsm/fsm_test.go
package fsm

import (
	"context"
	"testing"

	"github.com/dkoosis/muxmcp/internal/logging"
	lfsm "github.com/looplab/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A session lifecycle shaped like the one the connection manager drives.
const (
	offline State = "offline"
	dialing State = "dialing"
	online  State = "online"

	dial      Event = "dial"
	dialOK    Event = "dial_ok"
	dialError Event = "dial_error"
	hangUp    Event = "hang_up"
)

type handle struct{ id string }

func lifecycle(logger logging.Logger) FSM {
	return NewFSM(offline, logger).
		AddTransition(Transition{From: []State{offline}, Event: dial, To: dialing}).
		AddTransition(Transition{
			From:  []State{dialing},
			Event: dialOK,
			To:    online,
			Condition: func(_ context.Context, _ Event, data interface{}) bool {
				h, ok := data.(*handle)
				return ok && h != nil
			},
		}).
		AddTransition(Transition{From: []State{dialing}, Event: dialError, To: offline}).
		AddTransition(Transition{From: []State{dialing, online}, Event: hangUp, To: offline})
}

func buildLifecycle(t *testing.T) FSM {
	t.Helper()
	m := lifecycle(logging.GetNoopLogger())
	require.NoError(t, m.Build())
	return m
}

func TestFSM_StateEmptyBeforeBuild(t *testing.T) {
	m := lifecycle(nil)
	assert.Equal(t, State(""), m.CurrentState())
	assert.False(t, m.CanTransition(dial))

	err := m.Transition(context.Background(), dial, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before Build")
	assert.Error(t, m.SetState(online))
}

func TestFSM_ConnectCycle(t *testing.T) {
	m := buildLifecycle(t)
	ctx := context.Background()
	assert.Equal(t, offline, m.CurrentState())

	require.NoError(t, m.Transition(ctx, dial, nil))
	assert.Equal(t, dialing, m.CurrentState())
	require.NoError(t, m.Transition(ctx, dialOK, &handle{id: "s1"}))
	assert.Equal(t, online, m.CurrentState())
	require.NoError(t, m.Transition(ctx, hangUp, nil))
	assert.Equal(t, offline, m.CurrentState())

	require.NoError(t, m.Transition(ctx, dial, nil))
	require.NoError(t, m.Transition(ctx, dialError, nil))
	assert.Equal(t, offline, m.CurrentState(), "A failed attempt returns to the start.")
}

func TestFSM_UndefinedEventIsRejected(t *testing.T) {
	m := buildLifecycle(t)

	assert.False(t, m.CanTransition(dialOK))
	err := m.Transition(context.Background(), dialOK, &handle{})
	require.Error(t, err)
	var invalid lfsm.InvalidEventError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, offline, m.CurrentState())

	require.NoError(t, m.Transition(context.Background(), dial, nil))
	assert.Error(t, m.Transition(context.Background(), dial, nil), "Only one attempt may be in flight.")
	assert.Equal(t, dialing, m.CurrentState())
}

func TestFSM_GuardCancelsTransition(t *testing.T) {
	m := buildLifecycle(t)
	ctx := context.Background()
	require.NoError(t, m.Transition(ctx, dial, nil))

	err := m.Transition(ctx, dialOK, nil)
	require.Error(t, err)
	var canceled lfsm.CanceledError
	assert.ErrorAs(t, err, &canceled)
	assert.Contains(t, err.Error(), "guard condition")
	assert.Equal(t, dialing, m.CurrentState(), "A refused event leaves the state alone.")

	assert.Error(t, m.Transition(ctx, dialOK, "not a handle"))
	require.NoError(t, m.Transition(ctx, dialOK, &handle{id: "s2"}))
	assert.Equal(t, online, m.CurrentState())
}

func TestFSM_GuardOnlyAppliesToItsSourceStates(t *testing.T) {
	var checked int
	m := NewFSM(offline, nil).
		AddTransition(Transition{From: []State{dialing}, Event: hangUp, To: offline}).
		AddTransition(Transition{
			From:  []State{online},
			Event: hangUp,
			To:    offline,
			Condition: func(context.Context, Event, interface{}) bool {
				checked++
				return false
			},
		}).
		AddTransition(Transition{From: []State{offline}, Event: dial, To: dialing})
	require.NoError(t, m.Build())

	require.NoError(t, m.Transition(context.Background(), dial, nil))
	require.NoError(t, m.Transition(context.Background(), hangUp, nil))
	assert.Equal(t, 0, checked, "The guard belongs to the online->offline rule only.")
}

func TestFSM_ObserversSeeEveryTransition(t *testing.T) {
	type step struct {
		from, to State
		event    Event
	}
	var seen []step
	m := lifecycle(nil).OnTransition(func(from, to State, event Event) {
		seen = append(seen, step{from, to, event})
	})
	require.NoError(t, m.Build())

	ctx := context.Background()
	require.NoError(t, m.Transition(ctx, dial, nil))
	require.Error(t, m.Transition(ctx, dialOK, nil))
	require.NoError(t, m.Transition(ctx, hangUp, nil))

	assert.Equal(t, []step{
		{offline, dialing, dial},
		{dialing, offline, hangUp},
	}, seen, "Refused events are not observed.")
}

func TestFSM_SetStateAndReset(t *testing.T) {
	var observed int
	m := lifecycle(nil).OnTransition(func(State, State, Event) { observed++ })
	require.NoError(t, m.Build())

	require.NoError(t, m.SetState(online))
	assert.Equal(t, online, m.CurrentState())
	assert.True(t, m.CanTransition(hangUp))

	require.NoError(t, m.Reset())
	assert.Equal(t, offline, m.CurrentState())
	assert.Equal(t, 0, observed, "Forced states skip callbacks.")
}

func TestFSM_BuildErrors(t *testing.T) {
	t.Run("conflicting destinations", func(t *testing.T) {
		m := NewFSM(offline, nil).
			AddTransition(Transition{From: []State{dialing}, Event: hangUp, To: offline}).
			AddTransition(Transition{From: []State{online}, Event: hangUp, To: dialing})
		err := m.Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "conflicting destinations")
	})

	t.Run("missing source states", func(t *testing.T) {
		m := NewFSM(offline, nil).AddTransition(Transition{Event: dial, To: dialing})
		err := m.Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing 'From' states")
	})

	t.Run("changes after build", func(t *testing.T) {
		m := buildLifecycle(t)
		m.AddTransition(Transition{From: []State{online}, Event: dial, To: dialing})
		m.OnTransition(func(State, State, Event) {})
		assert.Equal(t, offline, m.CurrentState(), "The built machine keeps working.")
		assert.False(t, m.CanTransition(Event("redial")))
	})

	t.Run("build twice", func(t *testing.T) {
		m := lifecycle(nil)
		require.NoError(t, m.Build())
		assert.NoError(t, m.Build())
	})
}

// Package fsm provides a small builder around looplab/fsm used for connection lifecycles.
// file: internal/fsm/fsm.go
package fsm

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/logging"
	lfsm "github.com/looplab/fsm" // Use alias 'lfsm'.
)

// State represents a state in the FSM.
type State string

// Event represents an event that can trigger a state transition.
type Event string

// GuardCondition returns false to cancel a transition before it happens.
type GuardCondition func(ctx context.Context, event Event, data interface{}) bool

// Transition defines a transition rule between states.
type Transition struct {
	From      []State        // Source states for this transition.
	To        State          // The destination state.
	Event     Event          // The event triggering the transition.
	Condition GuardCondition // Optional guard checked before the event is applied.
}

// StateObserver is notified after every successful transition.
type StateObserver func(from, to State, event Event)

// FSM defines the interface for our finite state machine wrapper.
type FSM interface {
	// AddTransition stores a transition definition. Call Build() after adding all transitions.
	AddTransition(transition Transition) FSM
	// OnTransition registers an observer. Must be called before Build().
	OnTransition(observer StateObserver) FSM
	// Build finalizes the configuration and creates the underlying machine.
	Build() error
	// CurrentState returns the current state. Requires Build().
	CurrentState() State
	// CanTransition checks if the event is defined for the current state. Requires Build().
	CanTransition(event Event) bool
	// Transition attempts to trigger a state transition. Requires Build().
	Transition(ctx context.Context, event Event, data interface{}) error
	// SetState forces the state without running callbacks. Requires Build().
	SetState(state State) error
	// Reset sets the state back to the initial state. Requires Build().
	Reset() error
}

// loopFSM implements the FSM interface using looplab/fsm.
type loopFSM struct {
	initialState State
	logger       logging.Logger
	transitions  []Transition
	observers    []StateObserver
	fsm          *lfsm.FSM // nil until Build() is called.
	buildErr     error
	mu           sync.RWMutex // Protects fsm and buildErr.
}

// NewFSM creates a new FSM builder with the specified initial state.
func NewFSM(initialState State, logger logging.Logger) FSM {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &loopFSM{
		initialState: initialState,
		logger:       logger.WithField("component", "fsm"),
	}
}

// AddTransition stores a transition definition to be used during Build().
func (l *loopFSM) AddTransition(t Transition) FSM {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.fsm != nil:
		l.setBuildErr(errors.New("cannot AddTransition after Build"))
	case len(t.From) == 0:
		l.logger.Error("Transition definition missing 'From' states.", "event", t.Event, "to", t.To)
		l.setBuildErr(errors.Newf("transition %q is missing 'From' states", t.Event))
	default:
		l.transitions = append(l.transitions, t)
	}
	return l
}

// OnTransition registers an observer for completed transitions.
func (l *loopFSM) OnTransition(observer StateObserver) FSM {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fsm != nil {
		l.setBuildErr(errors.New("cannot register observer after Build"))
		return l
	}
	if observer != nil {
		l.observers = append(l.observers, observer)
	}
	return l
}

func (l *loopFSM) setBuildErr(err error) {
	if l.buildErr == nil {
		l.buildErr = err
	}
}

// Build finalizes the FSM configuration and creates the looplab/fsm instance.
// Calling Build again is a no-op returning the first result.
func (l *loopFSM) Build() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fsm != nil || l.buildErr != nil {
		return l.buildErr
	}

	callbacks := make(lfsm.Callbacks)
	descs := make(map[string]*lfsm.EventDesc)
	order := make([]string, 0, len(l.transitions))
	guards := make(map[string][]Transition)

	for _, t := range l.transitions {
		name := string(t.Event)
		desc, ok := descs[name]
		if !ok {
			desc = &lfsm.EventDesc{Name: name, Dst: string(t.To)}
			descs[name] = desc
			order = append(order, name)
		} else if desc.Dst != string(t.To) {
			l.buildErr = errors.Newf("conflicting destinations (%q and %q) for event %q", desc.Dst, t.To, name)
			return l.buildErr
		}
		for _, s := range t.From {
			if !containsString(desc.Src, string(s)) {
				desc.Src = append(desc.Src, string(s))
			}
		}
		if t.Condition != nil {
			guards[name] = append(guards[name], t)
		}
	}

	events := make(lfsm.Events, 0, len(order))
	for _, name := range order {
		events = append(events, *descs[name])
		if g := guards[name]; len(g) > 0 {
			callbacks["before_"+name] = guardCallback(g)
		}
	}

	observers := append([]StateObserver(nil), l.observers...)
	callbacks["enter_state"] = func(_ context.Context, e *lfsm.Event) {
		l.logger.Debug("State changed.", "event", e.Event, "from", e.Src, "to", e.Dst)
		for _, o := range observers {
			o(State(e.Src), State(e.Dst), Event(e.Event))
		}
	}

	l.fsm = lfsm.NewFSM(string(l.initialState), events, callbacks)
	return nil
}

func guardCallback(ts []Transition) lfsm.Callback {
	return func(ctx context.Context, e *lfsm.Event) {
		data := eventData(e)
		for _, t := range ts {
			if !containsState(t.From, State(e.Src)) {
				continue
			}
			if !t.Condition(ctx, t.Event, data) {
				e.Cancel(errors.Newf("guard condition for event %q from state %q failed", t.Event, e.Src))
				return
			}
		}
	}
}

func eventData(e *lfsm.Event) interface{} {
	if len(e.Args) > 0 {
		return e.Args[0]
	}
	return nil
}

func containsState(states []State, s State) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func (l *loopFSM) instance() (*lfsm.FSM, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		if l.buildErr != nil {
			return nil, l.buildErr
		}
		return nil, errors.New("fsm used before Build")
	}
	return l.fsm, nil
}

// CurrentState returns the current state, or "" before Build().
func (l *loopFSM) CurrentState() State {
	f, err := l.instance()
	if err != nil {
		return ""
	}
	return State(f.Current())
}

// CanTransition checks if the event can fire from the current state.
func (l *loopFSM) CanTransition(event Event) bool {
	f, err := l.instance()
	if err != nil {
		return false
	}
	return f.Can(string(event))
}

// Transition triggers a state transition based on the event.
func (l *loopFSM) Transition(ctx context.Context, event Event, data interface{}) error {
	f, err := l.instance()
	if err != nil {
		return err
	}
	var args []interface{}
	if data != nil {
		args = append(args, data)
	}
	from := f.Current()
	if err := f.Event(ctx, string(event), args...); err != nil {
		l.logger.Debug("Transition rejected.", "event", event, "from", from, "error", err)
		return err
	}
	return nil
}

// SetState forces the machine into state. Use with caution.
func (l *loopFSM) SetState(state State) error {
	f, err := l.instance()
	if err != nil {
		return err
	}
	l.logger.Warn("Manually setting FSM state.", "target_state", state)
	f.SetState(string(state))
	return nil
}

// Reset sets the state back to the initial state.
func (l *loopFSM) Reset() error {
	return l.SetState(l.initialState)
}

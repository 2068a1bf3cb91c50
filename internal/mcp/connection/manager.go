// Package connection owns the single long-lived session with the tool-provider process.
// file: internal/mcp/connection/manager.go
package connection

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/auth"
	"github.com/dkoosis/muxmcp/internal/fsm"
	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/dkoosis/muxmcp/internal/mcperror"
	"github.com/dkoosis/muxmcp/internal/metrics"
	"github.com/dkoosis/muxmcp/internal/transport"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const connectKey = "connect"

// errSuperseded marks an attempt whose result was discarded because Disconnect ran meanwhile.
var errSuperseded = errors.New("connect attempt superseded by disconnect")

// Config holds the settings the Manager needs to start a session.
type Config struct {
	Command        string
	Args           []string
	ConnectTimeout time.Duration
	ClientInfo     transport.ClientInfo
}

// Manager orchestrates the lifecycle of the tool-provider session.
// It is safe for concurrent use. Only the Manager assigns or clears the session.
type Manager struct {
	id      string
	config  Config
	creds   auth.Source
	spawner transport.Spawner
	stats   metrics.Recorder
	logger  logging.Logger

	group singleflight.Group

	mu      sync.RWMutex // Protects machine transitions, session, caps and epoch.
	machine fsm.FSM
	session transport.Session
	caps    *transport.Capabilities
	epoch   uint64
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRecorder sends connection statistics to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.stats = r
		}
	}
}

// NewManager creates a disconnected Manager.
func NewManager(config Config, creds auth.Source, spawner transport.Spawner, logger logging.Logger, opts ...Option) (*Manager, error) {
	if creds == nil {
		return nil, errors.New("credential source is required")
	}
	if spawner == nil {
		return nil, errors.New("spawner is required")
	}
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 30 * time.Second
	}
	if config.ClientInfo.Name == "" {
		config.ClientInfo.Name = "muxmcp"
	}

	id := uuid.NewString()
	m := &Manager{
		id:      id,
		config:  config,
		creds:   creds,
		spawner: spawner,
		stats:   metrics.NopRecorder{},
		logger:  logger.WithField("component", "connection_manager").WithField("connection_id", id),
	}
	for _, opt := range opts {
		opt(m)
	}

	machine, err := newStateMachine(m.logger, func(from, to State, event fsm.Event) {
		m.logger.Debug("Connection state changed.", "from", from, "to", to, "event", event)
	})
	if err != nil {
		return nil, err
	}
	m.machine = machine
	return m, nil
}

// ID returns the manager's unique identifier, used in logs.
func (m *Manager) ID() string { return m.id }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.machine.CurrentState()
}

// IsConnected reports whether a handshaken session is available.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isConnectedLocked()
}

func (m *Manager) isConnectedLocked() bool {
	return m.machine.CurrentState() == StateConnected && m.session != nil
}

// Epoch counts successful connects. It changes whenever a new session is established.
func (m *Manager) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

// ActiveSession returns the live session and its epoch, or nil when disconnected.
func (m *Manager) ActiveSession() (transport.Session, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.isConnectedLocked() {
		return nil, m.epoch
	}
	return m.session, m.epoch
}

// Capabilities returns what the remote reported at handshake, or nil when disconnected.
func (m *Manager) Capabilities() *transport.Capabilities {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.caps
}

// EnsureConnected returns once a session is available.
// Concurrent callers share one attempt and all receive its error.
// ctx bounds only this caller's wait; the attempt itself is bounded by the connect timeout.
func (m *Manager) EnsureConnected(ctx context.Context) error {
	err := m.ensureConnected(ctx)
	if errors.Is(err, errSuperseded) {
		// The attempt we joined was cancelled by a Disconnect; start a fresh one.
		err = m.ensureConnected(ctx)
	}
	return err
}

func (m *Manager) ensureConnected(ctx context.Context) error {
	if m.IsConnected() {
		return nil
	}

	ch := m.group.DoChan(connectKey, func() (interface{}, error) {
		return nil, m.connect(ctx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			m.logger.Debug("Joined in-flight connect attempt.", "error", res.Err)
		}
		return res.Err
	case <-ctx.Done():
		return mcperror.FromContext("connect", ctx.Err())
	}
}

// connect performs one attempt. It runs inside the single-flight group.
func (m *Manager) connect(parent context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), m.config.ConnectTimeout)
	defer cancel()

	m.mu.Lock()
	if m.isConnectedLocked() {
		m.mu.Unlock()
		return nil
	}
	if err := m.fire(EventConnect, nil); err != nil {
		state := m.machine.CurrentState()
		m.mu.Unlock()
		return errors.Wrapf(err, "cannot start connect from state %s", state)
	}
	m.mu.Unlock()

	m.stats.RecordConnectAttempt()
	m.logger.Info("Connecting to tool provider.", "command", m.config.Command)
	start := time.Now()

	creds, err := m.creds.Resolve(ctx)
	if err != nil {
		return m.fail(nil, err)
	}

	spec := transport.SpawnSpec{
		Command: m.config.Command,
		Args:    m.config.Args,
		Env:     transport.BuildEnv(creds.Env()),
	}
	sess, err := m.spawner.Spawn(ctx, spec)
	if err != nil {
		return m.fail(nil, mcperror.NewConnectionError("spawn failed", mcperror.FromContext("connect", err)))
	}

	caps, err := sess.Initialize(ctx, m.config.ClientInfo)
	if err != nil {
		return m.fail(sess, mcperror.NewConnectionError("handshake failed", mcperror.FromContext("connect", err)))
	}

	m.mu.Lock()
	if m.machine.CurrentState() != StateConnecting {
		m.mu.Unlock()
		m.closeQuietly(sess)
		m.logger.Info("Discarding session established after disconnect.")
		return errSuperseded
	}
	if err := m.fire(EventConnectSucceeded, sess); err != nil {
		m.mu.Unlock()
		return m.fail(sess, errors.Wrap(err, "connect state transition failed"))
	}
	m.session = sess
	m.caps = caps
	m.epoch++
	epoch := m.epoch
	m.mu.Unlock()

	m.stats.RecordConnectResult(nil)
	m.logger.Info("Connected to tool provider.",
		"epoch", epoch,
		"server", caps.ServerName,
		"server_version", caps.ServerVersion,
		"credentials_source", creds.Source,
		"elapsed", time.Since(start))
	return nil
}

// fail closes a half-open session, returns the machine to disconnected and passes err through.
func (m *Manager) fail(sess transport.Session, err error) error {
	if sess != nil {
		m.closeQuietly(sess)
	}

	m.mu.Lock()
	if m.machine.CurrentState() == StateConnecting {
		if tErr := m.fire(EventConnectFailed, nil); tErr != nil {
			m.logger.Error("Failed to record connect failure, forcing state.", "error", tErr)
			_ = m.machine.SetState(StateDisconnected)
		}
	}
	m.mu.Unlock()

	m.stats.RecordConnectResult(err)
	m.stats.RecordError("connection", mcperror.Kind(err), err.Error())
	m.logger.Warn("Connect attempt failed.", "kind", mcperror.Kind(err), "error", err)
	return err
}

// fire applies a lifecycle event. Caller holds m.mu.
// Events never inherit a caller context: a cancelled context would abort the transition midway.
func (m *Manager) fire(event fsm.Event, data interface{}) error {
	return m.machine.Transition(context.Background(), event, data)
}

// Disconnect moves to disconnected, clears the session and closes it best-effort.
// It never fails and is safe to call repeatedly.
func (m *Manager) Disconnect(_ context.Context) {
	m.mu.Lock()
	sess := m.session
	m.session = nil
	m.caps = nil
	wasActive := m.machine.CanTransition(EventDisconnect)
	if wasActive {
		if err := m.fire(EventDisconnect, nil); err != nil {
			m.logger.Error("Disconnect transition failed, forcing state.", "error", err)
			_ = m.machine.SetState(StateDisconnected)
		}
	}
	m.mu.Unlock()

	if wasActive {
		m.stats.RecordDisconnect()
		m.logger.Info("Disconnected from tool provider.")
	}
	if sess != nil {
		m.closeQuietly(sess)
	}
}

// Reset disconnects and connects again.
func (m *Manager) Reset(ctx context.Context) error {
	m.Disconnect(ctx)
	return m.EnsureConnected(ctx)
}

func (m *Manager) closeQuietly(sess transport.Session) {
	if err := sess.Close(); err != nil {
		m.logger.Warn("Error closing session, ignoring.", "error", err)
	}
}

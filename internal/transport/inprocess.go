// file: internal/transport/inprocess.go
package transport

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/server"
)

// InProcessSpawner connects sessions to an mcp-go server running in this process.
// It stands in for the subprocess in tests. The SpawnSpec is recorded but not executed.
type InProcessSpawner struct {
	server *server.MCPServer
	logger logging.Logger

	spawns   atomic.Int64
	lastSpec atomic.Pointer[SpawnSpec]
}

// NewInProcessSpawner creates a spawner backed by srv.
func NewInProcessSpawner(srv *server.MCPServer, logger logging.Logger) *InProcessSpawner {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &InProcessSpawner{server: srv, logger: logger.WithField("component", "inprocess_spawner")}
}

// Spawn creates a new in-process client session.
func (p *InProcessSpawner) Spawn(ctx context.Context, spec SpawnSpec) (Session, error) {
	p.spawns.Add(1)
	specCopy := spec
	p.lastSpec.Store(&specCopy)

	c, err := client.NewInProcessClient(p.server)
	if err != nil {
		return nil, errors.Wrap(err, "create in-process client")
	}
	if err := c.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "start in-process client")
	}
	p.logger.Debug("In-process session created.", "spawn_count", p.spawns.Load())
	return NewClientSession(c, p.logger), nil
}

// SpawnCount reports how many sessions have been spawned.
func (p *InProcessSpawner) SpawnCount() int {
	return int(p.spawns.Load())
}

// LastSpec returns the most recent spawn specification, if any.
func (p *InProcessSpawner) LastSpec() (SpawnSpec, bool) {
	spec := p.lastSpec.Load()
	if spec == nil {
		return SpawnSpec{}, false
	}
	return *spec, true
}

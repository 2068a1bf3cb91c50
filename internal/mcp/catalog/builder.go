// file: internal/mcp/catalog/builder.go
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/dkoosis/muxmcp/internal/mcperror"
	"github.com/dkoosis/muxmcp/internal/metrics"
	"github.com/dkoosis/muxmcp/internal/schema"
	"github.com/dkoosis/muxmcp/internal/transport"
)

// DefaultToolset names the tool family used in default descriptions.
const DefaultToolset = "mux"

// Connector is the part of the connection manager the builder depends on.
type Connector interface {
	EnsureConnected(ctx context.Context) error
	ActiveSession() (transport.Session, uint64)
}

// Options configures a Builder.
type Options struct {
	// Toolset prefixes generated descriptions. Defaults to DefaultToolset.
	Toolset string
	// CallTimeout bounds an invocation whose context has no deadline. Zero disables it.
	CallTimeout time.Duration
	// CachePerEpoch reuses the operation list until the session changes.
	CachePerEpoch bool
	Recorder      metrics.Recorder
	Logger        logging.Logger
}

type cachedList struct {
	epoch uint64
	ops   []transport.OperationDescriptor
}

// Builder produces tool catalogs from the remote operation list.
type Builder struct {
	conn   Connector
	opts   Options
	stats  metrics.Recorder
	logger logging.Logger

	mu    sync.Mutex
	cache *cachedList
}

// NewBuilder creates a Builder bound to conn.
func NewBuilder(conn Connector, opts Options) *Builder {
	if strings.TrimSpace(opts.Toolset) == "" {
		opts.Toolset = DefaultToolset
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("catalog_builder")
	}
	stats := opts.Recorder
	if stats == nil {
		stats = metrics.NopRecorder{}
	}
	return &Builder{
		conn:   conn,
		opts:   opts,
		stats:  stats,
		logger: logger.WithField("component", "catalog_builder"),
	}
}

// GetTools connects if needed and returns a fresh catalog.
// Connection errors are returned as-is; a failed listing yields mcperror.ErrCatalogFetchFailed.
func (b *Builder) GetTools(ctx context.Context) (*Catalog, error) {
	if err := b.conn.EnsureConnected(ctx); err != nil {
		return nil, err
	}

	ops, hit, err := b.listOperations(ctx)
	if err != nil {
		b.stats.RecordError("catalog", mcperror.Kind(err), err.Error())
		return nil, err
	}
	b.stats.RecordCatalogBuild(hit)

	cat := newCatalog(len(ops))
	for i := range ops {
		tool, err := b.buildTool(ops[i])
		if err != nil {
			b.logger.Warn("Skipping operation that could not be wrapped.", "operation", ops[i].Name, "error", err)
			continue
		}
		if cat.put(tool) {
			b.logger.Debug("Duplicate operation name, later definition wins.", "operation", tool.ID)
		}
	}

	b.logger.Info("Tool catalog built.", "tools", cat.Len(), "operations", len(ops), "cache_hit", hit)
	return cat, nil
}

// InvalidateCache drops any cached operation list.
func (b *Builder) InvalidateCache() {
	b.mu.Lock()
	b.cache = nil
	b.mu.Unlock()
}

func (b *Builder) listOperations(ctx context.Context) ([]transport.OperationDescriptor, bool, error) {
	sess, epoch := b.conn.ActiveSession()
	if sess == nil {
		return nil, false, mcperror.NewCatalogFetchError(errors.New("connection closed before listing"))
	}

	if b.opts.CachePerEpoch {
		b.mu.Lock()
		cached := b.cache
		b.mu.Unlock()
		if cached != nil && cached.epoch == epoch {
			return cached.ops, true, nil
		}
	}

	ops, err := sess.ListOperations(ctx)
	if err != nil {
		return nil, false, mcperror.NewCatalogFetchError(err)
	}

	if b.opts.CachePerEpoch {
		b.mu.Lock()
		b.cache = &cachedList{epoch: epoch, ops: ops}
		b.mu.Unlock()
	}
	return ops, false, nil
}

// buildTool wraps one descriptor. A panic while translating is reported as an error.
func (b *Builder) buildTool(op transport.OperationDescriptor) (tool *Tool, err error) {
	defer func() {
		if r := recover(); r != nil {
			tool = nil
			err = errors.Newf("panic while building tool: %v", r)
		}
	}()

	name := op.Name
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("operation has no name")
	}
	description := op.Description
	if strings.TrimSpace(description) == "" {
		description = fmt.Sprintf("%s tool: %s", b.opts.Toolset, name)
	}

	return &Tool{
		ID:          name,
		Description: description,
		Validator:   schema.Translate(op.InputSchema),
		invoke:      b.invoker(name),
		connected:   b.hasSession,
	}, nil
}

func (b *Builder) hasSession() bool {
	sess, _ := b.conn.ActiveSession()
	return sess != nil
}

// invoker binds a tool name to whatever session is current at call time.
func (b *Builder) invoker(name string) invokeFunc {
	return func(ctx context.Context, args map[string]any) (*transport.RawOutput, error) {
		sess, _ := b.conn.ActiveSession()
		if sess == nil {
			return nil, mcperror.NewNotConnectedError(name)
		}

		if _, ok := ctx.Deadline(); !ok && b.opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.opts.CallTimeout)
			defer cancel()
		}

		start := time.Now()
		out, err := sess.InvokeOperation(ctx, name, args)
		b.stats.RecordInvocation(name, time.Since(start), err)
		if err != nil {
			if errors.Is(err, mcperror.ErrNotInitialized) {
				// The session was closed underneath the call.
				return nil, mcperror.NewNotConnectedError(name)
			}
			b.logger.Debug("Tool invocation failed.", "tool", name, "kind", mcperror.Kind(err), "error", err)
			return nil, err
		}
		return out, nil
	}
}

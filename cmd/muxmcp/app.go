// file: cmd/muxmcp/app.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/auth"
	"github.com/dkoosis/muxmcp/internal/config"
	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/dkoosis/muxmcp/internal/mcp/catalog"
	"github.com/dkoosis/muxmcp/internal/mcp/connection"
	"github.com/dkoosis/muxmcp/internal/mcperror"
	"github.com/dkoosis/muxmcp/internal/metrics"
	"github.com/dkoosis/muxmcp/internal/provider"
	"github.com/dkoosis/muxmcp/internal/transport"
	"github.com/dkoosis/muxmcp/pkg/util/stringutil"
)

// deps are the collaborators tests replace.
type deps struct {
	spawner    transport.Spawner
	httpClient *http.Client
	stores     []auth.Store
}

func defaultDeps() deps {
	return deps{}
}

// globalOptions are the persistent root flags.
type globalOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

// app holds what a command invocation builds lazily.
type app struct {
	deps deps
	opts globalOptions

	cfg     *config.Config
	logger  logging.Logger
	stats   *metrics.Collector
	manager *connection.Manager
	builder *catalog.Builder
}

func newApp(d deps) *app {
	return &app{deps: d, logger: logging.GetNoopLogger()}
}

// loadConfig reads .env, the config file and the environment, then sets up logging.
func (a *app) loadConfig() error {
	if a.opts.envFile != "" {
		if err := config.LoadDotEnv(a.opts.envFile); err != nil {
			return err
		}
	} else if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}
	if a.opts.logLevel != "" {
		cfg.Logging.Level = a.opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	if cfg.Logging.Format == "json" {
		logging.InitLogging(logging.ParseLevel(cfg.Logging.Level), os.Stderr)
	} else {
		logging.SetupDefaultLogger(cfg.Logging.Level)
	}
	a.cfg = cfg
	a.logger = logging.GetLogger("cli")
	if cfg.Memory.DBPath != "" {
		a.logger.Debug("Memory database configured.", "path", cfg.Memory.DBPath)
	}
	return nil
}

// credentialStores returns the fallback stores enabled by configuration.
func (a *app) credentialStores() ([]auth.Store, error) {
	if a.deps.stores != nil {
		return a.deps.stores, nil
	}
	var stores []auth.Store
	if a.cfg.Auth.UseKeyring {
		stores = append(stores, auth.NewKeyringStore(a.logger))
	}
	if a.cfg.Auth.CredentialsPath != "" {
		fs, err := auth.NewFileStore(a.cfg.Auth.CredentialsPath, a.logger)
		if err != nil {
			return nil, err
		}
		stores = append(stores, fs)
	}
	return stores, nil
}

// connect wires the manager and the catalog builder.
func (a *app) connect() (*catalog.Builder, error) {
	if a.builder != nil {
		return a.builder, nil
	}
	stores, err := a.credentialStores()
	if err != nil {
		return nil, err
	}
	creds := auth.NewResolver(a.cfg.Mux.TokenID, a.cfg.Mux.TokenSecret, a.logger, stores...)

	spawner := a.deps.spawner
	if spawner == nil {
		spawner = transport.NewStdioSpawner(a.logger)
	}

	a.stats = metrics.NewCollector(20)
	manager, err := connection.NewManager(connection.Config{
		Command:        a.cfg.MCP.Command,
		Args:           transport.ParseArgs(a.cfg.MCP.Args),
		ConnectTimeout: a.cfg.MCP.ConnectTimeout,
		ClientInfo:     transport.ClientInfo{Name: stringutil.CoalesceString(a.cfg.MCP.ClientName, config.DefaultClientName), Version: Version},
	}, creds, spawner, a.logger, connection.WithRecorder(a.stats))
	if err != nil {
		return nil, err
	}
	a.manager = manager
	a.builder = catalog.NewBuilder(manager, catalog.Options{
		Toolset:       a.cfg.Catalog.Toolset,
		CallTimeout:   a.cfg.MCP.CallTimeout,
		CachePerEpoch: a.cfg.Catalog.CachePerEpoch,
		Recorder:      a.stats,
		Logger:        a.logger,
	})
	return a.builder, nil
}

func (a *app) generator() (provider.Generator, error) {
	settings := provider.SettingsFromConfig(a.cfg)
	settings.HTTPClient = a.deps.httpClient
	settings.Logger = a.logger
	return provider.New(settings)
}

// shutdown disconnects best-effort. Errors are swallowed.
func (a *app) shutdown() {
	if a.manager == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.manager.Disconnect(ctx)
	if logging.IsDebugEnabled() && a.stats != nil {
		snap := a.stats.Snapshot()
		a.logger.Debug("Session statistics.",
			"connect_attempts", snap.ConnectAttempts,
			"connect_failures", snap.ConnectFailures,
			"catalog_builds", snap.CatalogBuilds,
			"tools_called", snap.ToolNames())
	}
}

// describeError renders err with its taxonomy class and hints for the terminal.
func describeError(err error) string {
	msg := err.Error()
	if kind := mcperror.Kind(err); kind != "" && kind != "Unclassified" {
		msg = fmt.Sprintf("[%s] %s", kind, msg)
	}
	for _, hint := range errors.GetAllHints(err) {
		msg += "\n  hint: " + hint
	}
	return msg
}

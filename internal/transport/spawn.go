// file: internal/transport/spawn.go
package transport

import (
	"context"
	"os/exec"
	"sort"
	"strings"
	"unicode"

	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/dkoosis/muxmcp/internal/mcperror"
	"github.com/mark3labs/mcp-go/client"
)

// DefaultCommand launches the Mux tool provider.
const DefaultCommand = "npx"

// DefaultArgs is the argument string used when none is configured.
const DefaultArgs = "-y,@mux/mcp@latest,--tools=dynamic,--client=claude"

// SpawnSpec describes how to start the tool-provider process.
type SpawnSpec struct {
	Command string
	Args    []string
	// Env holds KEY=VALUE entries layered over the ambient environment.
	Env []string
}

// Spawner starts a tool-provider process and returns an uninitialized Session.
type Spawner interface {
	Spawn(ctx context.Context, spec SpawnSpec) (Session, error)
}

// SpawnerFunc adapts a function to the Spawner interface.
type SpawnerFunc func(ctx context.Context, spec SpawnSpec) (Session, error)

// Spawn calls f.
func (f SpawnerFunc) Spawn(ctx context.Context, spec SpawnSpec) (Session, error) {
	return f(ctx, spec)
}

// ParseArgs splits a comma and/or whitespace separated argument string.
// An empty string yields DefaultArgs.
func ParseArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		s = DefaultArgs
	}
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// BuildEnv renders secrets as KEY=VALUE entries in key order.
// The child inherits the ambient environment and these entries take precedence.
func BuildEnv(secrets map[string]string) []string {
	keys := make([]string, 0, len(secrets))
	for k := range secrets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+secrets[k])
	}
	return env
}

// StdioSpawner starts the tool provider as a child process speaking MCP over stdio.
type StdioSpawner struct {
	Logger logging.Logger
}

// NewStdioSpawner creates a StdioSpawner.
func NewStdioSpawner(logger logging.Logger) *StdioSpawner {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &StdioSpawner{Logger: logger.WithField("component", "stdio_spawner")}
}

// Spawn resolves the executable and starts it.
func (s *StdioSpawner) Spawn(ctx context.Context, spec SpawnSpec) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, mcperror.FromContext("spawn", err)
	}
	command := spec.Command
	if command == "" {
		command = DefaultCommand
	}

	path, err := exec.LookPath(command)
	if err != nil {
		return nil, mcperror.NewTransportSpawnError(command, err)
	}

	s.Logger.Info("Starting tool provider.", "command", path, "args", spec.Args)
	c, err := client.NewStdioMCPClient(path, spec.Env, spec.Args...)
	if err != nil {
		return nil, mcperror.NewTransportSpawnError(command, err)
	}
	return NewClientSession(c, s.Logger), nil
}

// Package mcperror defines the error taxonomy of the MCP client bridge.
// file: internal/mcperror/types.go
package mcperror

import (
	"github.com/cockroachdb/errors"
)

// Base sentinel errors used throughout the application.
// Callers classify failures with errors.Is against these values.
var (
	// ErrMissingCredentials means a required Mux secret is absent. Never retried automatically.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrTransportSpawn means the tool-provider subprocess could not be started.
	ErrTransportSpawn = errors.New("transport spawn failed")

	// ErrNotInitialized means a protocol operation was issued before the handshake.
	ErrNotInitialized = errors.New("session not initialized")

	// ErrConnectionFailed means the handshake failed for a reason other than missing credentials.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrCatalogFetchFailed means listing remote operations failed on an established connection.
	ErrCatalogFetchFailed = errors.New("catalog fetch failed")

	// ErrNotConnected means a tool was invoked without an active session.
	ErrNotConnected = errors.New("not connected")

	// ErrInvalidArguments means tool arguments did not satisfy the translated input schema.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrTimeout means a connect or invocation deadline elapsed.
	ErrTimeout = errors.New("operation timed out")
)

// NewMissingCredentialsError reports the names of absent secrets.
// Example usage:
//
//	return mcperror.NewMissingCredentialsError("MUX_TOKEN_ID", "MUX_TOKEN_SECRET")
func NewMissingCredentialsError(names ...string) error {
	err := errors.Newf("required credentials not set: %v", names)
	err = errors.WithHint(err, "export the variables, add them to .env, or run `muxmcp auth login`")
	return errors.Mark(err, ErrMissingCredentials)
}

// NewTransportSpawnError wraps a failure to start the subprocess.
func NewTransportSpawnError(command string, cause error) error {
	err := wrapOrNew(cause, "failed to start tool provider %q", command)
	err = errors.WithDetailf(err, "command: %s", command)
	return errors.Mark(err, ErrTransportSpawn)
}

// NewNotInitializedError reports a protocol operation issued before initialize.
func NewNotInitializedError(operation string) error {
	err := errors.Newf("%s called before initialize", operation)
	return errors.Mark(err, ErrNotInitialized)
}

// NewConnectionError wraps a handshake failure.
// Errors already classified as spawn or credential failures keep their class.
func NewConnectionError(message string, cause error) error {
	if errors.Is(cause, ErrTransportSpawn) || errors.Is(cause, ErrMissingCredentials) {
		return cause
	}
	return errors.Mark(wrapOrNew(cause, "%s", message), ErrConnectionFailed)
}

// NewCatalogFetchError wraps a failed list-operations round trip.
func NewCatalogFetchError(cause error) error {
	err := wrapOrNew(cause, "failed to list remote operations")
	return errors.Mark(err, ErrCatalogFetchFailed)
}

// NewNotConnectedError reports an invocation without an active session.
func NewNotConnectedError(tool string) error {
	err := errors.Newf("cannot invoke %q: no active connection", tool)
	err = errors.WithHint(err, "fetch the tool catalog again to reconnect")
	return errors.Mark(err, ErrNotConnected)
}

// NewInvalidArgumentsError wraps a schema validation failure for a tool.
func NewInvalidArgumentsError(tool string, cause error) error {
	err := wrapOrNew(cause, "invalid arguments for %q", tool)
	return errors.Mark(err, ErrInvalidArguments)
}

// NewTimeoutError reports an elapsed deadline for an operation.
func NewTimeoutError(operation string, cause error) error {
	err := wrapOrNew(cause, "%s timed out", operation)
	return errors.Mark(err, ErrTimeout)
}

func wrapOrNew(cause error, format string, args ...interface{}) error {
	if cause == nil {
		return errors.Newf(format, args...)
	}
	return errors.Wrapf(cause, format, args...)
}

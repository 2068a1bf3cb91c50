// file: internal/mcperror/utils.go
package mcperror

import (
	"context"

	"github.com/cockroachdb/errors"
)

// IsMissingCredentials checks if the error is a missing credentials error.
func IsMissingCredentials(err error) bool {
	return errors.Is(err, ErrMissingCredentials)
}

// IsNotConnected checks if the error is a not connected error.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsInvalidArguments checks if the error is an invalid arguments error.
func IsInvalidArguments(err error) bool {
	return errors.Is(err, ErrInvalidArguments)
}

// Kind names the taxonomy class of err for logs and CLI output.
// Example usage:
//
//	logger.Error("Tool call failed.", "kind", mcperror.Kind(err), "error", err)
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials):
		return "MissingCredentials"
	case errors.Is(err, ErrTransportSpawn):
		return "TransportSpawnError"
	case errors.Is(err, ErrNotInitialized):
		return "NotInitialized"
	case errors.Is(err, ErrCatalogFetchFailed):
		return "CatalogFetchFailed"
	case errors.Is(err, ErrNotConnected):
		return "NotConnected"
	case errors.Is(err, ErrInvalidArguments):
		return "InvalidArguments"
	case errors.Is(err, ErrConnectionFailed):
		return "ConnectionFailed"
	case errors.Is(err, ErrTimeout):
		return "Timeout"
	default:
		return "Unclassified"
	}
}

// FromContext converts a context deadline into ErrTimeout and leaves other errors untouched.
func FromContext(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(operation, err)
	}
	return err
}

package mcperror

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_MarkSentinels(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     string
	}{
		{"missing credentials", NewMissingCredentialsError("MUX_TOKEN_ID"), ErrMissingCredentials, "MissingCredentials"},
		{"spawn", NewTransportSpawnError("npx", cause), ErrTransportSpawn, "TransportSpawnError"},
		{"not initialized", NewNotInitializedError("tools/list"), ErrNotInitialized, "NotInitialized"},
		{"connection", NewConnectionError("handshake failed", cause), ErrConnectionFailed, "ConnectionFailed"},
		{"catalog", NewCatalogFetchError(cause), ErrCatalogFetchFailed, "CatalogFetchFailed"},
		{"not connected", NewNotConnectedError("list_assets"), ErrNotConnected, "NotConnected"},
		{"invalid args", NewInvalidArgumentsError("list_assets", cause), ErrInvalidArguments, "InvalidArguments"},
		{"timeout", NewTimeoutError("connect", nil), ErrTimeout, "Timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.err)
			assert.True(t, errors.Is(tc.err, tc.sentinel))
			assert.Equal(t, tc.kind, Kind(tc.err))
		})
	}
}

func TestConstructors_KeepCause(t *testing.T) {
	cause := errors.New("exec: \"npx\": executable file not found in $PATH")
	err := NewTransportSpawnError("npx", cause)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "npx")
}

func TestNewConnectionError_PreservesSpawnClass(t *testing.T) {
	spawnErr := NewTransportSpawnError("npx", errors.New("not found"))
	err := NewConnectionError("connect", spawnErr)
	assert.True(t, errors.Is(err, ErrTransportSpawn))
	assert.False(t, errors.Is(err, ErrConnectionFailed))
}

func TestMissingCredentials_HasHint(t *testing.T) {
	err := NewMissingCredentialsError("MUX_TOKEN_SECRET")
	hints := errors.GetAllHints(err)
	require.NotEmpty(t, hints)
	assert.Contains(t, hints[0], "muxmcp auth login")
}

func TestFromContext(t *testing.T) {
	err := FromContext("connect", context.DeadlineExceeded)
	assert.True(t, errors.Is(err, ErrTimeout))

	other := errors.New("other")
	assert.Equal(t, other, FromContext("connect", other))
	assert.Empty(t, Kind(nil))
}

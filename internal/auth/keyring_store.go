// file: internal/auth/keyring_store.go
package auth

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "muxmcp"           // Service name for keyring.
	keyringUser    = "mux-access-token" // Account name for keyring entry.
)

// KeyringStore keeps credentials in the OS keychain.
type KeyringStore struct {
	logger logging.Logger
}

var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a keyring-backed store.
func NewKeyringStore(logger logging.Logger) *KeyringStore {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &KeyringStore{logger: logger.WithField("component", "keyring_store")}
}

// Name implements Store.
func (s *KeyringStore) Name() string { return "keyring" }

// IsAvailable checks if the OS keyring service is accessible.
func (s *KeyringStore) IsAvailable() bool {
	_, err := keyring.Get(keyringService, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		s.logger.Warn("Keyring service is inaccessible or permissions are insufficient.", "error", err)
		return false
	}
	return true
}

// Load reads credentials from the keyring. A missing entry is not an error.
func (s *KeyringStore) Load() (*Credentials, error) {
	data, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			s.logger.Debug("No credentials found in system keyring.")
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to load credentials from system keyring")
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		s.logger.Error("Keyring entry is corrupted and cannot be parsed, deleting it.", "error", err)
		_ = s.Delete()
		return nil, errors.Wrap(err, "failed to parse credentials from system keyring")
	}
	creds.Source = s.Name()
	return &creds, nil
}

// Save writes credentials to the keyring.
func (s *KeyringStore) Save(creds Credentials) error {
	if !creds.Complete() {
		return errors.Newf("refusing to save incomplete credentials, missing %v", creds.Missing())
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, "failed to encode credentials for keyring")
	}
	if err := keyring.Set(keyringService, keyringUser, string(data)); err != nil {
		s.logger.Error("keyring.Set operation failed.", "error", fmt.Sprintf("%+v", err))
		return errors.Wrap(err, "failed to save credentials to system keyring")
	}
	s.logger.Info("Credentials saved to system keyring.")
	return nil
}

// Delete removes the keyring entry. A missing entry is not an error.
func (s *KeyringStore) Delete() error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "failed to delete credentials from system keyring")
	}
	s.logger.Info("Credentials removed from system keyring.")
	return nil
}

// DiagnosticResult is the outcome of a keyring round-trip probe.
type DiagnosticResult struct {
	Service    string
	User       string
	SetErr     error
	GetErr     error
	ValueMatch bool
	DeleteErr  error
}

// OK reports whether every probe step succeeded.
func (r DiagnosticResult) OK() bool {
	return r.SetErr == nil && r.GetErr == nil && r.ValueMatch && r.DeleteErr == nil
}

// Diagnose writes, reads back and deletes a probe entry under a separate account.
// The stored credentials are not touched.
func (s *KeyringStore) Diagnose() DiagnosticResult {
	const probeUser = keyringUser + "-probe"
	const probeValue = "muxmcp-keyring-probe"

	res := DiagnosticResult{Service: keyringService, User: keyringUser}
	if res.SetErr = keyring.Set(keyringService, probeUser, probeValue); res.SetErr != nil {
		s.logger.Warn("Keyring probe write failed.", "error", res.SetErr)
		return res
	}
	got, err := keyring.Get(keyringService, probeUser)
	res.GetErr = err
	res.ValueMatch = err == nil && got == probeValue
	res.DeleteErr = keyring.Delete(keyringService, probeUser)
	s.logger.Debug("Keyring probe finished.", "ok", res.OK())
	return res
}

// Advice returns troubleshooting steps for an unusable keyring.
func (s *KeyringStore) Advice() string {
	return `The OS keyring could not be used. Try the following:
1. On macOS, unlock the login keychain and accept any access prompt.
2. On Linux, make sure a Secret Service provider (gnome-keyring, KWallet) is running and unlocked.
3. Or skip the keyring: set MUX_TOKEN_ID and MUX_TOKEN_SECRET, or set auth.credentials_path.`
}

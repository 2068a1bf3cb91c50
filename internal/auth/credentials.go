// Package auth resolves and stores the Mux API credentials handed to the tool provider.
// file: internal/auth/credentials.go
package auth

import (
	"context"

	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/dkoosis/muxmcp/internal/mcperror"
)

// Environment variable names of the two required secrets.
const (
	EnvTokenID     = "MUX_TOKEN_ID"
	EnvTokenSecret = "MUX_TOKEN_SECRET"
)

// Credentials is the Mux access token pair.
type Credentials struct {
	TokenID     string `json:"token_id"`
	TokenSecret string `json:"token_secret"`
	// Source names where the values came from (config, keyring, file). Not persisted.
	Source string `json:"-"`
}

// Missing returns the environment names of absent secrets.
func (c Credentials) Missing() []string {
	var missing []string
	if c.TokenID == "" {
		missing = append(missing, EnvTokenID)
	}
	if c.TokenSecret == "" {
		missing = append(missing, EnvTokenSecret)
	}
	return missing
}

// Complete reports whether both secrets are present.
func (c Credentials) Complete() bool {
	return len(c.Missing()) == 0
}

// Env returns the secrets keyed by their environment names.
func (c Credentials) Env() map[string]string {
	return map[string]string{
		EnvTokenID:     c.TokenID,
		EnvTokenSecret: c.TokenSecret,
	}
}

// Store persists credentials outside the process environment.
// Load returns nil, nil when nothing is stored.
type Store interface {
	Name() string
	Load() (*Credentials, error)
	Save(creds Credentials) error
	Delete() error
}

// Source resolves credentials before a connection attempt.
type Source interface {
	Resolve(ctx context.Context) (Credentials, error)
}

// Resolver combines explicitly configured values with fallback stores.
// Configured values win; stores only fill fields that are still empty.
type Resolver struct {
	configured Credentials
	stores     []Store
	logger     logging.Logger
}

var _ Source = (*Resolver)(nil)

// NewResolver creates a Resolver. tokenID and tokenSecret are the values from
// config or environment and may be empty.
func NewResolver(tokenID, tokenSecret string, logger logging.Logger, stores ...Store) *Resolver {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &Resolver{
		configured: Credentials{TokenID: tokenID, TokenSecret: tokenSecret, Source: "config"},
		stores:     stores,
		logger:     logger.WithField("component", "credential_resolver"),
	}
}

// Resolve returns complete credentials or an error marked ErrMissingCredentials.
func (r *Resolver) Resolve(ctx context.Context) (Credentials, error) {
	creds := r.configured
	if creds.Complete() {
		return creds, nil
	}

	for _, store := range r.stores {
		if err := ctx.Err(); err != nil {
			return Credentials{}, err
		}
		stored, err := store.Load()
		if err != nil {
			r.logger.Warn("Credential store unavailable, skipping.", "store", store.Name(), "error", err)
			continue
		}
		if stored == nil {
			continue
		}
		if creds.TokenID == "" && stored.TokenID != "" {
			creds.TokenID = stored.TokenID
			creds.Source = store.Name()
		}
		if creds.TokenSecret == "" && stored.TokenSecret != "" {
			creds.TokenSecret = stored.TokenSecret
			creds.Source = store.Name()
		}
		if creds.Complete() {
			r.logger.Debug("Credentials resolved from store.", "store", store.Name())
			return creds, nil
		}
	}

	return Credentials{}, mcperror.NewMissingCredentialsError(creds.Missing()...)
}

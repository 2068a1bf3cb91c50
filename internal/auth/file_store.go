// file: internal/auth/file_store.go
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/logging"
)

// FileStore keeps credentials in a 0600 JSON file.
// It is the fallback when the OS keyring is unavailable.
type FileStore struct {
	path   string
	logger logging.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store at path.
// It ensures the parent directory exists before returning.
func NewFileStore(path string, logger logging.Logger) (*FileStore, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "error creating credentials directory")
	}
	return &FileStore{path: path, logger: logger.WithField("component", "file_store")}, nil
}

// Name implements Store.
func (s *FileStore) Name() string { return "file" }

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the credentials file. A missing file is not an error.
func (s *FileStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read credentials file %s", s.path)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, errors.Wrapf(err, "failed to parse credentials file %s", s.path)
	}
	creds.Source = s.Name()
	return &creds, nil
}

// Save writes the credentials file with owner-only permissions.
func (s *FileStore) Save(creds Credentials) error {
	if !creds.Complete() {
		return errors.Newf("refusing to save incomplete credentials, missing %v", creds.Missing())
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode credentials")
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrapf(err, "failed to write credentials file %s", s.path)
	}
	s.logger.Info("Credentials saved to file.", "path", s.path)
	return nil
}

// Delete removes the file if it exists.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove credentials file %s", s.path)
	}
	return nil
}

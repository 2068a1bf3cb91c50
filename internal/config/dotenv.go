// file: internal/config/dotenv.go
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE files into the process environment.
// Missing files are skipped and variables already set are never overwritten.
// With no paths, ".env" in the working directory is tried.
func LoadDotEnv(paths ...string) error {
	logger := logging.GetLogger("config_dotenv")
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		expanded, err := expandHome(p)
		if err != nil {
			return err
		}
		if _, err := os.Stat(expanded); err != nil {
			if os.IsNotExist(err) {
				logger.Debug("Env file not found, skipping.", "path", expanded)
				continue
			}
			return errors.Wrapf(err, "failed to stat env file: %s", expanded)
		}
		if err := godotenv.Load(expanded); err != nil {
			return errors.Wrapf(err, "failed to load env file: %s", expanded)
		}
		logger.Debug("Loaded env file.", "path", expanded)
	}
	return nil
}

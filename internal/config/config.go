package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultLogLevel is used when LOG_LEVEL is unset.
	DefaultLogLevel = "info"

	// DefaultJWTExpiry is the lifetime of issued access tokens.
	DefaultJWTExpiry = 7 * 24 * time.Hour

	// DefaultEventsLimit is the page size of event log listings.
	DefaultEventsLimit = 100

	// MaxEventsLimit caps event log listings.
	MaxEventsLimit = 500

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout = 10 * time.Second
)

// LoadDotEnv loads variables from the given files (default ".env") into the
// process environment without overriding values that are already set.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
		slog.Debug("environment loaded", "file", f)
	}

	return nil
}

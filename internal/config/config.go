// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

// DefaultSnapshotKeepDays disables the retention sweep: snapshots are kept
// forever unless a positive day count is configured.
const DefaultSnapshotKeepDays = 0

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath           string
	KDFIterations    int
	SessionTTL       time.Duration
	SnapshotKeepDays int
	// Password is an optional master password for non-interactive use.
	// When empty, commands prompt on the terminal.
	Password string
}

// HasPassword reports whether a master password came from the environment,
// letting commands skip the terminal prompt.
func (c *Config) HasPassword() bool {
	return c.Password != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. Every variable is optional: NETWORTHVAULT_DB_PATH (networthvault.db),
// NETWORTHVAULT_KDF_ITERATIONS (100000), NETWORTHVAULT_SESSION_TTL (2h),
// NETWORTHVAULT_SNAPSHOT_KEEP_DAYS (0, keep forever), NETWORTHVAULT_PASSWORD.
func Load() (*Config, error) {
	dbPath := "networthvault.db"
	if v, ok := os.LookupEnv("NETWORTHVAULT_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	iterations := vaultcrypt.DefaultIterations
	if v, ok := os.LookupEnv("NETWORTHVAULT_KDF_ITERATIONS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("NETWORTHVAULT_KDF_ITERATIONS has invalid count %q: %w", v, err)
		}
		if parsed < vaultcrypt.MinIterations {
			return nil, fmt.Errorf("NETWORTHVAULT_KDF_ITERATIONS is %d, the minimum is %d", parsed, vaultcrypt.MinIterations)
		}
		iterations = parsed
	}

	sessionTTL := 2 * time.Hour
	if v, ok := os.LookupEnv("NETWORTHVAULT_SESSION_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("NETWORTHVAULT_SESSION_TTL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("NETWORTHVAULT_SESSION_TTL must be positive, got %q", v)
		}
		sessionTTL = parsed
	}

	keepDays := DefaultSnapshotKeepDays
	if v, ok := os.LookupEnv("NETWORTHVAULT_SNAPSHOT_KEEP_DAYS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("NETWORTHVAULT_SNAPSHOT_KEEP_DAYS has invalid day count %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("NETWORTHVAULT_SNAPSHOT_KEEP_DAYS cannot be negative, got %d", parsed)
		}
		keepDays = parsed
	}

	return &Config{
		DBPath:           dbPath,
		KDFIterations:    iterations,
		SessionTTL:       sessionTTL,
		SnapshotKeepDays: keepDays,
		Password:         os.Getenv("NETWORTHVAULT_PASSWORD"),
	}, nil
}

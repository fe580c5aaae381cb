package store

import (
	"log/slog"
	"time"
)

// Clock returns the current time. Repositories use it to stamp soft-deleted
// items, and tests can substitute a fixed clock.
type Clock func() time.Time

// DefaultClock returns the current UTC time.
func DefaultClock() time.Time {
	return time.Now().UTC()
}

// Config holds configuration for a Repository.
type Config struct {
	// Logger receives diagnostic messages for failed store calls.
	// Default: slog.Default()
	Logger *slog.Logger

	// Clock supplies timestamps for soft deletes.
	// Default: DefaultClock
	Clock Clock
}

// validate fills in defaults for unset config values.
func (c *Config) validate() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = DefaultClock
	}
}

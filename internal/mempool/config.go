package mempool

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Reference limits for a production node.
const (
	DefaultCapacity   = 20480
	DefaultMaxPackage = 10000
	DefaultLifetime   = time.Hour
)

// Config fixes the pool's behavior at construction time. Limits used to be
// build-mode globals in earlier iterations of the node; making them explicit
// keeps test and production behavior reproducible from the same binary.
type Config struct {
	// Capacity bounds the number of resident transactions.
	Capacity int
	// MaxPackage caps the batch size Package returns.
	MaxPackage int
	// Lifetime is how long a transaction may stay resident before
	// CleanupExpired removes it.
	Lifetime time.Duration
	// Clock supplies admission and expiry timestamps. Tests inject a mock;
	// nil defaults to the wall clock.
	Clock clock.Clock
}

// DefaultConfig returns the production reference configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:   DefaultCapacity,
		MaxPackage: DefaultMaxPackage,
		Lifetime:   DefaultLifetime,
	}
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.MaxPackage <= 0 {
		c.MaxPackage = DefaultMaxPackage
	}
	if c.Lifetime <= 0 {
		c.Lifetime = DefaultLifetime
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return c
}

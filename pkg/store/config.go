package store

import (
	"time"

	"github.com/google/uuid"
)

// Config holds lifetime defaults shared by all backends.
type Config struct {
	// InstanceID namespaces Instance tier entries. A random id is generated
	// when empty.
	InstanceID string `env:"FSM_INSTANCE_ID"`

	// TemporaryTTL and PersistentTTL are given to new entries of their tier;
	// overwrites keep the remaining lifetime. Zero means no expiry.
	TemporaryTTL  time.Duration `env:"FSM_TEMPORARY_TTL" envDefault:"24h"`
	PersistentTTL time.Duration `env:"FSM_PERSISTENT_TTL" envDefault:"0s"`

	// InstanceTTL is the lifetime shared by all entries of the instance,
	// started by its first write. Zero means no expiry.
	InstanceTTL time.Duration `env:"FSM_INSTANCE_TTL" envDefault:"0s"`
}

// DefaultConfig returns the defaults used when no configuration is supplied.
func DefaultConfig() Config {
	return Config{
		InstanceID:   uuid.NewString(),
		TemporaryTTL: 24 * time.Hour,
	}
}

// WithDefaults fills in the instance id when it is missing.
func (c Config) WithDefaults() Config {
	if c.InstanceID == "" {
		c.InstanceID = uuid.NewString()
	}
	return c
}

// TTL returns the initial lifetime for entries written to tier.
func (c Config) TTL(tier Tier) time.Duration {
	switch tier {
	case Temporary:
		return c.TemporaryTTL
	case Persistent:
		return c.PersistentTTL
	default:
		return c.InstanceTTL
	}
}

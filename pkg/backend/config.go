package backend

import (
	"time"

	"github.com/dmitrymomot/fsmkit/pkg/store"
)

// Kind names a storage backend.
type Kind string

const (
	Memory   Kind = "memory"
	Redis    Kind = "redis"
	Postgres Kind = "postgres"
	Mongo    Kind = "mongo"
)

// Config selects and tunes the storage backend.
type Config struct {
	Kind        Kind          `env:"FSM_BACKEND" envDefault:"memory"`         // Kind is one of memory, redis, postgres or mongo.
	CacheSize   int           `env:"FSM_CACHE_SIZE" envDefault:"0"`           // CacheSize enables a read-through LRU of this many values. Zero disables it.
	CacheMaxAge time.Duration `env:"FSM_CACHE_MAX_AGE" envDefault:"30s"`      // CacheMaxAge bounds how long a cached value is served.
	CacheTiers  []string      `env:"FSM_CACHE_TIERS" envDefault:"persistent"` // CacheTiers lists the cached tiers.
	Migrate     bool          `env:"FSM_MIGRATE" envDefault:"true"`           // Migrate runs schema setup (postgres migrations, mongo indexes) on open.

	Store store.Config
}

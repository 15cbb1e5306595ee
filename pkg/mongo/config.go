package mongo

import "time"

// Config holds the client settings, read from MONGODB_*.
type Config struct {
	ConnectionURL string `env:"MONGODB_URL,required"`
	// Database holds the fsm_entries and fsm_instances collections.
	Database string `env:"MONGODB_DATABASE" envDefault:"fsmkit"`

	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"`

	// RetryWrites lets the driver retry a write once after a network error
	// or failover. Storage writes are idempotent upserts, so this is safe.
	RetryWrites bool `env:"MONGODB_RETRY_WRITES" envDefault:"true"`
	RetryReads  bool `env:"MONGODB_RETRY_READS" envDefault:"true"`

	// RetryAttempts and RetryInterval govern the initial connection only.
	RetryAttempts int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`
}

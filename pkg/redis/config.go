package redis

import "time"

// Config holds the connection and key layout settings, read from REDIS_*.
type Config struct {
	// ConnectionURL has the form redis://:password@host:6379/0.
	ConnectionURL string `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`

	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	// KeyPrefix namespaces every key written by Storage, so several
	// deployments can share one database.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"fsm"`
	// ScanBatchSize is the COUNT hint used by Keys and Clear.
	ScanBatchSize int64 `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"1000"`
}

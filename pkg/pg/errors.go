package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// Connection and migration errors. Storage I/O failures wrap
// store.ErrStoreUnavailable.
var (
	ErrEmptyConnectionString   = errors.New("pg: empty connection string, set PG_CONN_URL")
	ErrInvalidConnectionString = errors.New("pg: invalid connection string")
	ErrConnectFailed           = errors.New("pg: failed to connect")
	ErrHealthcheckFailed       = errors.New("pg: healthcheck failed")
	ErrSchemaMissing           = errors.New("pg: fsm tables are missing, run Migrate")
	ErrMigrationFailed         = errors.New("pg: failed to apply migrations")
	ErrMigrationsDirNotFound   = errors.New("pg: migrations directory not found")
)

// IsNotFoundError reports whether err is pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

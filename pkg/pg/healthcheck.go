package pg

import (
	"context"
	"errors"
)

const schemaQuery = `SELECT to_regclass('fsm_entries') IS NOT NULL AND to_regclass('fsm_instances') IS NOT NULL`

// Healthcheck pings the database and verifies that the fsm tables exist.
// It returns ErrSchemaMissing when Migrate has not been run.
func (s *Storage) Healthcheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}

	var migrated bool
	if err := s.pool.QueryRow(ctx, schemaQuery).Scan(&migrated); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	if !migrated {
		return ErrSchemaMissing
	}
	return nil
}

// Package pg provides a PostgreSQL backend for store.Store built on the pgx/v5
// driver, together with the connection and migration helpers needed to run it.
//
// # Architecture
//
//   - Config is populated from environment variables via
//     github.com/caarlos0/env and controls pool limits, retries and the
//     migrations table.
//   - Connect opens a *pgxpool.Pool, retrying until the database answers.
//   - Migrate applies the embedded goose migrations that create the
//     fsm_entries and fsm_instances tables.
//   - Storage maps the storage tiers onto fsm_entries rows. Temporary and
//     Persistent rows carry their own expires_at; Instance rows are scoped by
//     instance id and share the lifetime stored in fsm_instances.
//
// Storage.Apply executes a batch in one transaction, so a committed overlay
// either lands completely or not at all.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	st := pg.NewStorage(pool, storeCfg)
//
// Expired rows are hidden from reads immediately; Storage.Purge removes them.
// Storage.Healthcheck reports ErrSchemaMissing until Migrate has run.
package pg

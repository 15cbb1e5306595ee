package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/fsmkit/pkg/store"
)

var (
	_ store.Store      = (*Storage)(nil)
	_ store.Batcher    = (*Storage)(nil)
	_ store.Configured = (*Storage)(nil)
)

// Entries of an expired instance are invisible until the next instance write
// clears them.
const liveEntry = `
	(expires_at IS NULL OR expires_at > now())
	AND NOT EXISTS (
		SELECT 1 FROM fsm_instances i
		WHERE i.id = fsm_entries.scope AND i.expires_at <= now()
	)`

const (
	getQuery = `SELECT value FROM fsm_entries
		WHERE tier = $1 AND scope = $2 AND key = $3 AND` + liveEntry

	hasQuery = `SELECT EXISTS (SELECT 1 FROM fsm_entries
		WHERE tier = $1 AND scope = $2 AND key = $3 AND` + liveEntry + `)`

	// A live entry keeps its deadline on overwrite; an expired one starts over.
	setQuery = `INSERT INTO fsm_entries (tier, scope, key, value, expires_at)
		VALUES ($1, $2, $3, $4, CASE WHEN $5::bigint > 0 THEN now() + $5::bigint * interval '1 millisecond' END)
		ON CONFLICT (tier, scope, key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = CASE
				WHEN fsm_entries.expires_at IS NOT NULL AND fsm_entries.expires_at <= now() THEN EXCLUDED.expires_at
				ELSE fsm_entries.expires_at
			END`

	removeQuery = `DELETE FROM fsm_entries WHERE tier = $1 AND scope = $2 AND key = $3`

	extendQuery = `UPDATE fsm_entries
		SET expires_at = now() + $5::bigint * interval '1 millisecond'
		WHERE tier = $1 AND scope = $2 AND key = $3
			AND expires_at > now()
			AND expires_at < now() + $4::bigint * interval '1 millisecond'`

	clearExpiredInstanceQuery = `DELETE FROM fsm_entries
		WHERE tier = $1 AND scope = $2
			AND EXISTS (SELECT 1 FROM fsm_instances WHERE id = $2 AND expires_at <= now())`

	dropExpiredInstanceQuery = `DELETE FROM fsm_instances WHERE id = $1 AND expires_at <= now()`

	startInstanceQuery = `INSERT INTO fsm_instances (id, expires_at)
		VALUES ($1, CASE WHEN $2::bigint > 0 THEN now() + $2::bigint * interval '1 millisecond' END)
		ON CONFLICT (id) DO NOTHING`

	extendInstanceQuery = `UPDATE fsm_instances
		SET expires_at = now() + $3::bigint * interval '1 millisecond'
		WHERE id = $1
			AND expires_at > now()
			AND expires_at < now() + $2::bigint * interval '1 millisecond'`

	purgeQuery = `DELETE FROM fsm_entries
		WHERE (expires_at IS NOT NULL AND expires_at <= now())
			OR EXISTS (
				SELECT 1 FROM fsm_instances i
				WHERE i.id = fsm_entries.scope AND i.expires_at <= now()
			)`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage implements store.Store on the fsm_entries table created by Migrate.
// Instance entries are scoped by instance id and their shared lifetime lives
// in fsm_instances.
type Storage struct {
	pool *pgxpool.Pool
	cfg  store.Config
}

// NewStorage wraps a connected pool.
func NewStorage(pool *pgxpool.Pool, cfg store.Config) *Storage {
	return &Storage{
		pool: pool,
		cfg:  cfg.WithDefaults(),
	}
}

// Config returns the lifetime settings in use.
func (s *Storage) Config() store.Config {
	return s.cfg
}

func (s *Storage) Get(ctx context.Context, tier store.Tier, key []byte) ([]byte, bool, error) {
	if err := store.CheckKey(tier, key); err != nil {
		return nil, false, err
	}

	var value []byte
	err := s.pool.QueryRow(ctx, getQuery, int16(tier), s.scope(tier), key).Scan(&value)
	if IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable(err)
	}
	return value, true, nil
}

func (s *Storage) Set(ctx context.Context, tier store.Tier, key, value []byte) error {
	if err := store.CheckKey(tier, key); err != nil {
		return err
	}
	if tier != store.Instance {
		return s.set(ctx, s.pool, tier, key, value)
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return s.set(ctx, tx, tier, key, value)
	})
}

func (s *Storage) Has(ctx context.Context, tier store.Tier, key []byte) (bool, error) {
	if err := store.CheckKey(tier, key); err != nil {
		return false, err
	}

	var ok bool
	if err := s.pool.QueryRow(ctx, hasQuery, int16(tier), s.scope(tier), key).Scan(&ok); err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

func (s *Storage) Remove(ctx context.Context, tier store.Tier, key []byte) error {
	if err := store.CheckKey(tier, key); err != nil {
		return err
	}
	return s.remove(ctx, s.pool, tier, key)
}

func (s *Storage) ExtendTTL(ctx context.Context, tier store.Tier, key []byte, threshold, extendTo time.Duration) error {
	if !tier.Valid() {
		return store.ErrInvalidTier
	}
	return s.extend(ctx, s.pool, tier, key, threshold, extendTo)
}

// Apply runs ops in a single transaction.
func (s *Storage) Apply(ctx context.Context, ops []store.Op) error {
	if err := store.CheckOps(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, op := range ops {
			var err error
			switch op.Kind {
			case store.OpSet:
				err = s.set(ctx, tx, op.Tier, op.Key, op.Value)
			case store.OpRemove:
				err = s.remove(ctx, tx, op.Tier, op.Key)
			case store.OpExtendTTL:
				err = s.extend(ctx, tx, op.Tier, op.Key, op.Threshold, op.ExtendTo)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Purge deletes expired entries and returns how many rows were removed.
func (s *Storage) Purge(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, purgeQuery)
	if err != nil {
		return 0, unavailable(err)
	}
	return tag.RowsAffected(), nil
}

// Pool returns the underlying connection pool.
func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

// set must run inside a transaction for the Instance tier.
func (s *Storage) set(ctx context.Context, q querier, tier store.Tier, key, value []byte) error {
	ttl := s.cfg.TTL(tier).Milliseconds()

	if tier == store.Instance {
		id := s.cfg.InstanceID
		if _, err := q.Exec(ctx, clearExpiredInstanceQuery, int16(tier), id); err != nil {
			return unavailable(err)
		}
		if _, err := q.Exec(ctx, dropExpiredInstanceQuery, id); err != nil {
			return unavailable(err)
		}
		if _, err := q.Exec(ctx, startInstanceQuery, id, ttl); err != nil {
			return unavailable(err)
		}
		// Instance entries never expire on their own.
		ttl = 0
	}

	if _, err := q.Exec(ctx, setQuery, int16(tier), s.scope(tier), key, value, ttl); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Storage) remove(ctx context.Context, q querier, tier store.Tier, key []byte) error {
	if _, err := q.Exec(ctx, removeQuery, int16(tier), s.scope(tier), key); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Storage) extend(ctx context.Context, q querier, tier store.Tier, key []byte, threshold, extendTo time.Duration) error {
	var err error
	if tier == store.Instance {
		_, err = q.Exec(ctx, extendInstanceQuery, s.cfg.InstanceID, threshold.Milliseconds(), extendTo.Milliseconds())
	} else {
		_, err = q.Exec(ctx, extendQuery, int16(tier), s.scope(tier), key, threshold.Milliseconds(), extendTo.Milliseconds())
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Storage) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginFunc(ctx, s.pool, fn)
	if err != nil && !store.IsUnavailable(err) {
		return unavailable(err)
	}
	return err
}

func (s *Storage) scope(tier store.Tier) string {
	if tier == store.Instance {
		return s.cfg.InstanceID
	}
	return ""
}

func unavailable(err error) error {
	return errors.Join(store.ErrStoreUnavailable, err)
}

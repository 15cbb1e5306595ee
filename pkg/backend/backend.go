package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/fsmkit/pkg/cache"
	"github.com/dmitrymomot/fsmkit/pkg/config"
	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/mongo"
	"github.com/dmitrymomot/fsmkit/pkg/pg"
	"github.com/dmitrymomot/fsmkit/pkg/redis"
	"github.com/dmitrymomot/fsmkit/pkg/store"
)

// Backend is an opened store together with its readiness check.
type Backend struct {
	Kind  Kind
	Store store.Store

	healthcheck func(context.Context) error
	close       func(context.Context) error
}

// Healthcheck pings the underlying connection. The memory backend is always
// healthy.
func (b *Backend) Healthcheck(ctx context.Context) error {
	if b.healthcheck == nil {
		return nil
	}
	return b.healthcheck(ctx)
}

// Close releases the connection.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// Option supplies driver configuration to Open.
type Option func(*drivers)

type drivers struct {
	redis *redis.Config
	pg    *pg.Config
	mongo *mongo.Config
}

func WithRedis(cfg redis.Config) Option {
	return func(d *drivers) { d.redis = &cfg }
}

func WithPostgres(cfg pg.Config) Option {
	return func(d *drivers) { d.pg = &cfg }
}

func WithMongo(cfg mongo.Config) Option {
	return func(d *drivers) { d.mongo = &cfg }
}

// Open connects the backend selected by cfg.Kind and wraps it in the LRU
// cache when cfg.CacheSize is positive. The driver configuration for the
// selected kind must be passed as an option.
func Open(ctx context.Context, cfg Config, log *slog.Logger, opts ...Option) (*Backend, error) {
	if log == nil {
		log = logger.Discard()
	}
	d := &drivers{}
	for _, opt := range opts {
		opt(d)
	}
	kind := Kind(strings.ToLower(string(cfg.Kind)))
	storeCfg := cfg.Store.WithDefaults()
	if cfg.Store.InstanceID == "" && durable(kind) {
		log.WarnContext(ctx, "instance id is generated; set FSM_INSTANCE_ID or instance tier state is lost on restart",
			logger.Backend(string(kind)),
			logger.InstanceID(storeCfg.InstanceID),
		)
	}

	var (
		b   *Backend
		err error
	)
	switch kind {
	case Memory, "":
		b = &Backend{Kind: Memory, Store: store.NewMemoryStore(store.WithConfig(storeCfg))}
	case Redis:
		b, err = openRedis(ctx, d.redis, storeCfg)
	case Postgres, "pg":
		b, err = openPostgres(ctx, d.pg, storeCfg, cfg.Migrate, log)
	case Mongo, "mongodb":
		b, err = openMongo(ctx, d.mongo, storeCfg, cfg.Migrate)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Kind)
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to open storage backend",
			logger.Backend(string(cfg.Kind)),
			logger.Error(err),
		)
		return nil, err
	}

	if cfg.CacheSize > 0 {
		tiers := make([]store.Tier, 0, len(cfg.CacheTiers))
		for _, t := range cfg.CacheTiers {
			tiers = append(tiers, store.ParseTier(t))
		}
		b.Store = cache.NewStore(b.Store, cfg.CacheSize,
			cache.WithTiers(tiers...),
			cache.WithMaxAge(cfg.CacheMaxAge),
		)
	}

	log.InfoContext(ctx, "storage backend opened",
		logger.Backend(string(b.Kind)),
		logger.InstanceID(storeCfg.InstanceID),
		slog.Int("cache_size", cfg.CacheSize),
	)
	return b, nil
}

// FromEnv loads Config and the selected driver's configuration from the
// environment and opens the backend. A nil log is replaced by one built from
// logger.Config.
func FromEnv(ctx context.Context, log *slog.Logger) (*Backend, error) {
	if log == nil {
		var lcfg logger.Config
		if err := config.Load(&lcfg); err != nil {
			return nil, err
		}
		log = logger.FromConfig(lcfg).With(logger.Component("backend"))
	}

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	var opts []Option
	switch Kind(strings.ToLower(string(cfg.Kind))) {
	case Redis:
		var rc redis.Config
		if err := config.Load(&rc); err != nil {
			return nil, err
		}
		opts = append(opts, WithRedis(rc))
	case Postgres, "pg":
		var pc pg.Config
		if err := config.Load(&pc); err != nil {
			return nil, err
		}
		opts = append(opts, WithPostgres(pc))
	case Mongo, "mongodb":
		var mc mongo.Config
		if err := config.Load(&mc); err != nil {
			return nil, err
		}
		opts = append(opts, WithMongo(mc))
	}

	return Open(ctx, cfg, log, opts...)
}

// durable reports whether kind keeps state across process restarts.
func durable(kind Kind) bool {
	switch kind {
	case Redis, Postgres, "pg", Mongo, "mongodb":
		return true
	default:
		return false
	}
}

func openRedis(ctx context.Context, cfg *redis.Config, storeCfg store.Config) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, Redis)
	}
	client, err := redis.Connect(ctx, *cfg)
	if err != nil {
		return nil, err
	}
	st := redis.NewStorageWithConfig(client, *cfg, redis.WithStoreConfig(storeCfg))
	return &Backend{
		Kind:        Redis,
		Store:       st,
		healthcheck: st.Healthcheck,
		close:       func(context.Context) error { return st.Close() },
	}, nil
}

func openPostgres(ctx context.Context, cfg *pg.Config, storeCfg store.Config, migrate bool, log *slog.Logger) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, Postgres)
	}
	pool, err := pg.Connect(ctx, *cfg)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := pg.Migrate(ctx, pool, *cfg, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	st := pg.NewStorage(pool, storeCfg)
	return &Backend{
		Kind:        Postgres,
		Store:       st,
		healthcheck: st.Healthcheck,
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

func openMongo(ctx context.Context, cfg *mongo.Config, storeCfg store.Config, migrate bool) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, Mongo)
	}
	client, err := mongo.New(ctx, *cfg)
	if err != nil {
		return nil, err
	}
	st := mongo.NewStorage(client.Database(cfg.Database), storeCfg)
	if migrate {
		if err := st.EnsureIndexes(ctx); err != nil {
			return nil, errors.Join(err, client.Disconnect(ctx))
		}
	}
	return &Backend{
		Kind:        Mongo,
		Store:       st,
		healthcheck: st.Healthcheck,
		close:       client.Disconnect,
	}, nil
}

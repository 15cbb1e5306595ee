package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/fsmkit/pkg/store"
)

var (
	_ store.Store      = (*Storage)(nil)
	_ store.Batcher    = (*Storage)(nil)
	_ store.Configured = (*Storage)(nil)
)

// setScript writes a value, keeping the remaining lifetime of an existing key
// and applying ARGV[2] milliseconds to a new one.
var setScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return redis.call('SET', KEYS[1], ARGV[1], 'KEEPTTL')
end
local ttl = tonumber(ARGV[2])
if ttl > 0 then
  return redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
end
return redis.call('SET', KEYS[1], ARGV[1])
`)

// instanceSetScript writes a field of the instance hash and starts the
// instance lifetime on first write.
var instanceSetScript = redis.NewScript(`
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
local ttl = tonumber(ARGV[3])
if ttl > 0 and redis.call('PTTL', KEYS[1]) == -1 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// extendScript raises the lifetime of an expiring key to ARGV[2] when less
// than ARGV[1] milliseconds remain.
var extendScript = redis.NewScript(`
local pttl = redis.call('PTTL', KEYS[1])
if pttl >= 0 and pttl < tonumber(ARGV[1]) then
  return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)

var scripts = []*redis.Script{setScript, instanceSetScript, extendScript}

// Storage implements store.Store on top of Redis.
//
// Temporary and Persistent entries are plain string keys under
// "<prefix>:t:" and "<prefix>:p:". Instance entries are fields of a single
// hash "<prefix>:i:<instance id>", so the whole instance expires together.
type Storage struct {
	db            redis.UniversalClient
	cfg           store.Config
	prefix        string
	scanBatchSize int64
}

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithStoreConfig sets the lifetime defaults and the instance id.
func WithStoreConfig(cfg store.Config) StorageOption {
	return func(s *Storage) {
		s.cfg = cfg.WithDefaults()
	}
}

// WithKeyPrefix overrides the default "fsm" key prefix.
func WithKeyPrefix(prefix string) StorageOption {
	return func(s *Storage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewStorage wraps a connected client.
func NewStorage(client redis.UniversalClient, opts ...StorageOption) *Storage {
	s := &Storage{
		db:            client,
		cfg:           store.DefaultConfig(),
		prefix:        "fsm",
		scanBatchSize: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStorageWithConfig wraps a connected client using the prefix and scan
// settings of cfg.
func NewStorageWithConfig(client redis.UniversalClient, cfg Config, opts ...StorageOption) *Storage {
	s := NewStorage(client, append([]StorageOption{WithKeyPrefix(cfg.KeyPrefix)}, opts...)...)
	if cfg.ScanBatchSize > 0 {
		s.scanBatchSize = cfg.ScanBatchSize
	}
	return s
}

// Config returns the lifetime settings in use.
func (s *Storage) Config() store.Config {
	return s.cfg
}

func (s *Storage) Get(ctx context.Context, tier store.Tier, key []byte) ([]byte, bool, error) {
	if err := store.CheckKey(tier, key); err != nil {
		return nil, false, err
	}

	var (
		val []byte
		err error
	)
	if tier == store.Instance {
		val, err = s.db.HGet(ctx, s.instanceKey(), string(key)).Bytes()
	} else {
		val, err = s.db.Get(ctx, s.key(tier, key)).Bytes()
	}
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable(err)
	}
	return val, true, nil
}

func (s *Storage) Set(ctx context.Context, tier store.Tier, key, value []byte) error {
	if err := store.CheckKey(tier, key); err != nil {
		return err
	}
	if err := s.set(ctx, s.db, tier, key, value).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Storage) Has(ctx context.Context, tier store.Tier, key []byte) (bool, error) {
	if err := store.CheckKey(tier, key); err != nil {
		return false, err
	}

	if tier == store.Instance {
		ok, err := s.db.HExists(ctx, s.instanceKey(), string(key)).Result()
		if err != nil {
			return false, unavailable(err)
		}
		return ok, nil
	}

	n, err := s.db.Exists(ctx, s.key(tier, key)).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (s *Storage) Remove(ctx context.Context, tier store.Tier, key []byte) error {
	if err := store.CheckKey(tier, key); err != nil {
		return err
	}
	if err := s.remove(ctx, s.db, tier, key).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Storage) ExtendTTL(ctx context.Context, tier store.Tier, key []byte, threshold, extendTo time.Duration) error {
	if !tier.Valid() {
		return store.ErrInvalidTier
	}
	if err := s.extend(ctx, s.db, tier, key, threshold, extendTo).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Apply runs ops inside MULTI/EXEC.
func (s *Storage) Apply(ctx context.Context, ops []store.Op) error {
	if err := store.CheckOps(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	_, err := s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			switch op.Kind {
			case store.OpSet:
				s.set(ctx, pipe, op.Tier, op.Key, op.Value)
			case store.OpRemove:
				s.remove(ctx, pipe, op.Tier, op.Key)
			case store.OpExtendTTL:
				s.extend(ctx, pipe, op.Tier, op.Key, op.Threshold, op.ExtendTo)
			}
		}
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Keys returns the raw keys currently stored in tier. SCAN is used for the
// string tiers so large keyspaces do not block the server.
func (s *Storage) Keys(ctx context.Context, tier store.Tier) ([][]byte, error) {
	if !tier.Valid() {
		return nil, store.ErrInvalidTier
	}

	if tier == store.Instance {
		fields, err := s.db.HKeys(ctx, s.instanceKey()).Result()
		if err != nil {
			return nil, unavailable(err)
		}
		keys := make([][]byte, 0, len(fields))
		for _, f := range fields {
			keys = append(keys, []byte(f))
		}
		return keys, nil
	}

	prefix := s.tierPrefix(tier)
	var keys [][]byte
	err := s.scan(ctx, prefix+"*", func(batch []string) error {
		for _, k := range batch {
			keys = append(keys, []byte(strings.TrimPrefix(k, prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Clear deletes every key written under the storage prefix, including the
// instance hashes of other instances.
func (s *Storage) Clear(ctx context.Context) error {
	return s.scan(ctx, s.prefix+":*", func(batch []string) error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.db.Del(ctx, batch...).Err(); err != nil {
			return unavailable(err)
		}
		return nil
	})
}

// Close terminates the Redis connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Conn returns the underlying Redis client for advanced operations.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}

func (s *Storage) set(ctx context.Context, c redis.Scripter, tier store.Tier, key, value []byte) *redis.Cmd {
	ttl := s.cfg.TTL(tier).Milliseconds()
	if tier == store.Instance {
		return instanceSetScript.Eval(ctx, c, []string{s.instanceKey()}, string(key), value, ttl)
	}
	return setScript.Eval(ctx, c, []string{s.key(tier, key)}, value, ttl)
}

func (s *Storage) remove(ctx context.Context, c redis.Cmdable, tier store.Tier, key []byte) *redis.IntCmd {
	if tier == store.Instance {
		return c.HDel(ctx, s.instanceKey(), string(key))
	}
	return c.Del(ctx, s.key(tier, key))
}

func (s *Storage) extend(ctx context.Context, c redis.Scripter, tier store.Tier, key []byte, threshold, extendTo time.Duration) *redis.Cmd {
	target := s.instanceKey()
	if tier != store.Instance {
		target = s.key(tier, key)
	}
	return extendScript.Eval(ctx, c, []string{target}, threshold.Milliseconds(), extendTo.Milliseconds())
}

func (s *Storage) scan(ctx context.Context, match string, fn func(batch []string) error) error {
	var cursor uint64
	for {
		batch, next, err := s.db.Scan(ctx, cursor, match, s.scanBatchSize).Result()
		if err != nil {
			return unavailable(err)
		}
		if err := fn(batch); err != nil {
			return err
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *Storage) tierPrefix(tier store.Tier) string {
	if tier == store.Temporary {
		return s.prefix + ":t:"
	}
	return s.prefix + ":p:"
}

func (s *Storage) key(tier store.Tier, key []byte) string {
	return s.tierPrefix(tier) + string(key)
}

func (s *Storage) instanceKey() string {
	return s.prefix + ":i:" + s.cfg.InstanceID
}

func unavailable(err error) error {
	return errors.Join(store.ErrStoreUnavailable, err)
}

package cache

import (
	"context"
	"time"

	"github.com/dmitrymomot/fsmkit/pkg/store"
)

var (
	_ store.Store      = (*Store)(nil)
	_ store.Batcher    = (*Store)(nil)
	_ store.Configured = (*Store)(nil)
)

type storeKey struct {
	tier store.Tier
	key  string
}

type storeValue struct {
	value    []byte
	cachedAt time.Time
}

// Store is a read-through, write-through LRU in front of another store.Store.
// Only the selected tiers whose entries never expire are cached: a tier with
// a TTL in the base store's configuration is passed through, so an expired
// state is never served from memory. It assumes this process is the only
// writer of the cached tiers; values also age out after the max age.
type Store struct {
	base     store.Store
	lru      *LRU[storeKey, storeValue]
	tiers    map[store.Tier]bool
	maxAge   time.Duration
	now      func() time.Time
	cfg      store.Config
	explicit bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTiers selects the cached tiers. Defaults to store.Persistent.
func WithTiers(tiers ...store.Tier) StoreOption {
	return func(s *Store) {
		s.tiers = make(map[store.Tier]bool, len(tiers))
		for _, t := range tiers {
			s.tiers[t] = true
		}
	}
}

// WithMaxAge bounds how long a cached value is served. Zero disables aging.
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *Store) {
		s.maxAge = d
	}
}

// WithStoreConfig supplies the lifetime settings of the base store. It is
// only needed when the base store does not implement store.Configured;
// store.DefaultConfig is assumed otherwise.
func WithStoreConfig(cfg store.Config) StoreOption {
	return func(s *Store) {
		s.cfg = cfg
		s.explicit = true
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore wraps base with an LRU holding up to capacity values.
// The capacity must be positive, otherwise it panics.
func NewStore(base store.Store, capacity int, opts ...StoreOption) *Store {
	s := &Store{
		base:   base,
		lru:    NewLRU[storeKey, storeValue](capacity),
		tiers:  map[store.Tier]bool{store.Persistent: true},
		maxAge: 30 * time.Second,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if !s.explicit {
		s.cfg = store.DefaultConfig()
		if c, ok := base.(store.Configured); ok {
			s.cfg = c.Config()
		}
	}
	for tier := range s.tiers {
		if s.cfg.TTL(tier) > 0 {
			delete(s.tiers, tier)
		}
	}
	return s
}

// Config returns the lifetime settings of the base store.
func (s *Store) Config() store.Config {
	return s.cfg
}

// Cached reports whether values of tier are kept in memory.
func (s *Store) Cached(tier store.Tier) bool {
	return s.tiers[tier]
}

// Base returns the wrapped store.
func (s *Store) Base() store.Store {
	return s.base
}

// Len returns the number of cached values.
func (s *Store) Len() int {
	return s.lru.Len()
}

// Evictions returns how many values were dropped for lack of capacity.
func (s *Store) Evictions() uint64 {
	return s.lru.Evictions()
}

// Purge drops every cached value.
func (s *Store) Purge() {
	s.lru.Clear()
}

// PurgeTier drops the cached values of one tier and returns how many were
// dropped.
func (s *Store) PurgeTier(tier store.Tier) int {
	return s.lru.RemoveFunc(func(k storeKey, _ storeValue) bool {
		return k.tier == tier
	})
}

func (s *Store) Get(ctx context.Context, tier store.Tier, key []byte) ([]byte, bool, error) {
	if v, ok := s.lookup(tier, key, true); ok {
		return clone(v), true, nil
	}

	v, ok, err := s.base.Get(ctx, tier, key)
	if err != nil || !ok {
		return v, ok, err
	}
	s.remember(tier, key, v)
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, tier store.Tier, key, value []byte) error {
	if err := s.base.Set(ctx, tier, key, value); err != nil {
		s.forget(tier, key)
		return err
	}
	s.remember(tier, key, value)
	return nil
}

func (s *Store) Has(ctx context.Context, tier store.Tier, key []byte) (bool, error) {
	if _, ok := s.lookup(tier, key, false); ok {
		return true, nil
	}
	return s.base.Has(ctx, tier, key)
}

func (s *Store) Remove(ctx context.Context, tier store.Tier, key []byte) error {
	s.forget(tier, key)
	return s.base.Remove(ctx, tier, key)
}

func (s *Store) ExtendTTL(ctx context.Context, tier store.Tier, key []byte, threshold, extendTo time.Duration) error {
	return s.base.ExtendTTL(ctx, tier, key, threshold, extendTo)
}

// Apply forwards ops to the base store and updates the cache once they landed.
func (s *Store) Apply(ctx context.Context, ops []store.Op) error {
	if err := store.Apply(ctx, s.base, ops); err != nil {
		for _, op := range ops {
			s.forget(op.Tier, op.Key)
		}
		return err
	}

	for _, op := range ops {
		switch op.Kind {
		case store.OpSet:
			s.remember(op.Tier, op.Key, op.Value)
		case store.OpRemove:
			s.forget(op.Tier, op.Key)
		}
	}
	return nil
}

// lookup reads a cached value. Only touch=true refreshes its recency.
func (s *Store) lookup(tier store.Tier, key []byte, touch bool) ([]byte, bool) {
	if !s.tiers[tier] {
		return nil, false
	}
	k := storeKey{tier, string(key)}
	get := s.lru.Peek
	if touch {
		get = s.lru.Get
	}
	v, ok := get(k)
	if !ok {
		return nil, false
	}
	if s.maxAge > 0 && s.now().Sub(v.cachedAt) >= s.maxAge {
		s.lru.Remove(k)
		return nil, false
	}
	return v.value, true
}

func (s *Store) remember(tier store.Tier, key, value []byte) {
	if !s.tiers[tier] || len(key) == 0 {
		return
	}
	s.lru.Put(storeKey{tier, string(key)}, storeValue{value: clone(value), cachedAt: s.now()})
}

func (s *Store) forget(tier store.Tier, key []byte) {
	if s.tiers[tier] {
		s.lru.Remove(storeKey{tier, string(key)})
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

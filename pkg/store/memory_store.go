package store

import (
	"context"
	"sync"
	"time"
)

var (
	_ Store      = (*MemoryStore)(nil)
	_ Batcher    = (*MemoryStore)(nil)
	_ Configured = (*MemoryStore)(nil)
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore implements Store in process memory.
// Temporary and Persistent entries expire individually; Instance entries share
// a single instance lifetime.
type MemoryStore struct {
	mu                sync.Mutex
	tiers             map[Tier]map[string]memoryEntry
	instanceExpiresAt time.Time

	cfg Config
	now func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithConfig overrides the lifetime defaults.
func WithConfig(cfg Config) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cfg = cfg.WithDefaults()
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		tiers: map[Tier]map[string]memoryEntry{
			Instance:   {},
			Persistent: {},
			Temporary:  {},
		},
		cfg: DefaultConfig(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

// Config returns the lifetime settings in use.
func (ms *MemoryStore) Config() Config {
	return ms.cfg
}

func (ms *MemoryStore) Get(ctx context.Context, tier Tier, key []byte) ([]byte, bool, error) {
	if err := validate(tier, key); err != nil {
		return nil, false, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, ok := ms.lookup(tier, string(key))
	if !ok {
		return nil, false, nil
	}
	return clone(e.value), true, nil
}

func (ms *MemoryStore) Set(ctx context.Context, tier Tier, key, value []byte) error {
	if err := validate(tier, key); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.set(tier, string(key), value)
	return nil
}

func (ms *MemoryStore) Has(ctx context.Context, tier Tier, key []byte) (bool, error) {
	if err := validate(tier, key); err != nil {
		return false, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	_, ok := ms.lookup(tier, string(key))
	return ok, nil
}

func (ms *MemoryStore) Remove(ctx context.Context, tier Tier, key []byte) error {
	if err := validate(tier, key); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.tiers[tier], string(key))
	return nil
}

func (ms *MemoryStore) ExtendTTL(ctx context.Context, tier Tier, key []byte, threshold, extendTo time.Duration) error {
	if !tier.Valid() {
		return ErrInvalidTier
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.extend(tier, string(key), threshold, extendTo)
	return nil
}

// Apply executes ops under a single lock, so readers never observe half a batch.
func (ms *MemoryStore) Apply(ctx context.Context, ops []Op) error {
	if err := CheckOps(ops); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			ms.set(op.Tier, string(op.Key), op.Value)
		case OpRemove:
			delete(ms.tiers[op.Tier], string(op.Key))
		case OpExtendTTL:
			ms.extend(op.Tier, string(op.Key), op.Threshold, op.ExtendTo)
		}
	}
	return nil
}

// Entries returns a copy of the live entries of a tier keyed by their raw key.
func (ms *MemoryStore) Entries(tier Tier) map[string][]byte {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make(map[string][]byte, len(ms.tiers[tier]))
	for k := range ms.tiers[tier] {
		if e, ok := ms.lookup(tier, k); ok {
			out[k] = clone(e.value)
		}
	}
	return out
}

// Must be called with lock held.
func (ms *MemoryStore) lookup(tier Tier, key string) (memoryEntry, bool) {
	now := ms.now()

	if tier == Instance && ms.instanceExpired(now) {
		clear(ms.tiers[Instance])
		ms.instanceExpiresAt = time.Time{}
		return memoryEntry{}, false
	}

	e, ok := ms.tiers[tier][key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
		delete(ms.tiers[tier], key)
		return memoryEntry{}, false
	}
	return e, true
}

// Must be called with lock held.
func (ms *MemoryStore) set(tier Tier, key string, value []byte) {
	now := ms.now()

	if tier == Instance {
		if ms.instanceExpired(now) {
			clear(ms.tiers[Instance])
			ms.instanceExpiresAt = time.Time{}
		}
		if ms.instanceExpiresAt.IsZero() && ms.cfg.InstanceTTL > 0 {
			ms.instanceExpiresAt = now.Add(ms.cfg.InstanceTTL)
		}
		ms.tiers[Instance][key] = memoryEntry{value: clone(value)}
		return
	}

	// Overwriting a live entry keeps its remaining lifetime.
	if e, ok := ms.lookup(tier, key); ok {
		e.value = clone(value)
		ms.tiers[tier][key] = e
		return
	}

	e := memoryEntry{value: clone(value)}
	if ttl := ms.cfg.TTL(tier); ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	ms.tiers[tier][key] = e
}

// Must be called with lock held.
func (ms *MemoryStore) extend(tier Tier, key string, threshold, extendTo time.Duration) {
	now := ms.now()

	if tier == Instance {
		if ms.instanceExpiresAt.IsZero() || ms.instanceExpired(now) {
			return
		}
		if ms.instanceExpiresAt.Sub(now) < threshold {
			ms.instanceExpiresAt = now.Add(extendTo)
		}
		return
	}

	e, ok := ms.lookup(tier, key)
	if !ok || e.expiresAt.IsZero() {
		return
	}
	if e.expiresAt.Sub(now) < threshold {
		e.expiresAt = now.Add(extendTo)
		ms.tiers[tier][key] = e
	}
}

func (ms *MemoryStore) instanceExpired(now time.Time) bool {
	return !ms.instanceExpiresAt.IsZero() && !now.Before(ms.instanceExpiresAt)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

package store

import (
	"context"
	"strings"
	"time"
)

// Tier selects one of the three persistence lifetimes an entry can live in.
type Tier uint8

const (
	// Instance entries share the lifetime of the owning instance.
	Instance Tier = iota
	// Persistent entries survive indefinitely unless a TTL is configured or extended.
	Persistent
	// Temporary entries are cleared after a bounded window.
	Temporary
)

func (t Tier) String() string {
	switch t {
	case Instance:
		return "instance"
	case Persistent:
		return "persistent"
	case Temporary:
		return "temporary"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the declared tiers.
func (t Tier) Valid() bool {
	return t <= Temporary
}

// ParseTier converts a declaration string into a Tier.
// Anything other than "persistent" or "temporary" falls back to Instance.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "persistent":
		return Persistent
	case "temporary":
		return Temporary
	default:
		return Instance
	}
}

// Store is the key-value surface every backend exposes.
// Missing keys are reported as absence, never as an error.
type Store interface {
	Get(ctx context.Context, tier Tier, key []byte) ([]byte, bool, error)
	Set(ctx context.Context, tier Tier, key, value []byte) error
	Has(ctx context.Context, tier Tier, key []byte) (bool, error)
	Remove(ctx context.Context, tier Tier, key []byte) error

	// ExtendTTL raises the remaining lifetime of an entry to extendTo when it
	// has dropped below threshold. For the Instance tier the key is ignored and
	// the lifetime of the whole instance is extended.
	ExtendTTL(ctx context.Context, tier Tier, key []byte, threshold, extendTo time.Duration) error
}

// OpKind identifies a buffered write.
type OpKind uint8

const (
	OpSet OpKind = iota + 1
	OpRemove
	OpExtendTTL
)

// Op is a single write queued for batch application.
type Op struct {
	Kind      OpKind
	Tier      Tier
	Key       []byte
	Value     []byte
	Threshold time.Duration
	ExtendTo  time.Duration
}

// Configured is implemented by stores that expose their lifetime settings.
type Configured interface {
	Config() Config
}

// Batcher is implemented by backends able to apply several writes in one step.
// Backends that can do so atomically should.
type Batcher interface {
	Apply(ctx context.Context, ops []Op) error
}

// ApplySequential applies ops one by one against s. It is the fallback used
// for backends that do not implement Batcher.
func ApplySequential(ctx context.Context, s Store, ops []Op) error {
	for _, op := range ops {
		var err error
		switch op.Kind {
		case OpSet:
			err = s.Set(ctx, op.Tier, op.Key, op.Value)
		case OpRemove:
			err = s.Remove(ctx, op.Tier, op.Key)
		case OpExtendTTL:
			err = s.ExtendTTL(ctx, op.Tier, op.Key, op.Threshold, op.ExtendTo)
		default:
			err = ErrInvalidOp
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Apply writes ops through s, preferring its Batcher implementation.
func Apply(ctx context.Context, s Store, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	if b, ok := s.(Batcher); ok {
		return b.Apply(ctx, ops)
	}
	return ApplySequential(ctx, s, ops)
}

func validate(tier Tier, key []byte) error {
	if !tier.Valid() {
		return ErrInvalidTier
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return nil
}

// CheckKey validates the tier and key of a single keyed operation.
func CheckKey(tier Tier, key []byte) error {
	return validate(tier, key)
}

// CheckOps validates a whole batch up front so backends can reject it before
// applying anything.
func CheckOps(ops []Op) error {
	for _, op := range ops {
		if op.Kind < OpSet || op.Kind > OpExtendTTL {
			return ErrInvalidOp
		}
		if !op.Tier.Valid() {
			return ErrInvalidTier
		}
		if op.Kind != OpExtendTTL && len(op.Key) == 0 {
			return ErrEmptyKey
		}
	}
	return nil
}

package store

import (
	"context"
	"time"
)

var (
	_ Store   = (*Overlay)(nil)
	_ Batcher = (*Overlay)(nil)
)

type pendingKey struct {
	tier Tier
	key  string
}

// Overlay buffers writes on top of a base store until Commit.
// Reads observe buffered writes first, so code running inside an invocation
// sees its own changes while the base store stays untouched until the
// invocation succeeds. Overlays nest: committing an inner overlay into an
// outer one only appends to the outer buffer.
type Overlay struct {
	base    Store
	ops     []Op
	pending map[pendingKey]Op
}

// NewOverlay creates an empty write buffer over base.
func NewOverlay(base Store) *Overlay {
	return &Overlay{
		base:    base,
		pending: make(map[pendingKey]Op),
	}
}

// Base returns the underlying store.
func (o *Overlay) Base() Store {
	return o.base
}

// Pending returns the number of buffered writes.
func (o *Overlay) Pending() int {
	return len(o.ops)
}

func (o *Overlay) Get(ctx context.Context, tier Tier, key []byte) ([]byte, bool, error) {
	if err := validate(tier, key); err != nil {
		return nil, false, err
	}
	if op, ok := o.pending[pendingKey{tier, string(key)}]; ok {
		if op.Kind == OpRemove {
			return nil, false, nil
		}
		return clone(op.Value), true, nil
	}
	return o.base.Get(ctx, tier, key)
}

func (o *Overlay) Set(ctx context.Context, tier Tier, key, value []byte) error {
	if err := validate(tier, key); err != nil {
		return err
	}
	o.record(Op{Kind: OpSet, Tier: tier, Key: clone(key), Value: clone(value)})
	return nil
}

func (o *Overlay) Has(ctx context.Context, tier Tier, key []byte) (bool, error) {
	if err := validate(tier, key); err != nil {
		return false, err
	}
	if op, ok := o.pending[pendingKey{tier, string(key)}]; ok {
		return op.Kind == OpSet, nil
	}
	return o.base.Has(ctx, tier, key)
}

func (o *Overlay) Remove(ctx context.Context, tier Tier, key []byte) error {
	if err := validate(tier, key); err != nil {
		return err
	}
	o.record(Op{Kind: OpRemove, Tier: tier, Key: clone(key)})
	return nil
}

func (o *Overlay) ExtendTTL(ctx context.Context, tier Tier, key []byte, threshold, extendTo time.Duration) error {
	if !tier.Valid() {
		return ErrInvalidTier
	}
	o.ops = append(o.ops, Op{
		Kind:      OpExtendTTL,
		Tier:      tier,
		Key:       clone(key),
		Threshold: threshold,
		ExtendTo:  extendTo,
	})
	return nil
}

// Apply appends ops to the buffer.
func (o *Overlay) Apply(ctx context.Context, ops []Op) error {
	for _, op := range ops {
		if op.Kind == OpExtendTTL {
			o.ops = append(o.ops, op)
			continue
		}
		if op.Kind != OpSet && op.Kind != OpRemove {
			return ErrInvalidOp
		}
		o.record(op)
	}
	return nil
}

// Commit flushes buffered writes to the base store in the order they were
// made and resets the buffer. The buffer is kept when the base store fails.
func (o *Overlay) Commit(ctx context.Context) error {
	if len(o.ops) == 0 {
		return nil
	}
	if err := Apply(ctx, o.base, o.ops); err != nil {
		return err
	}
	o.Discard()
	return nil
}

// Discard drops every buffered write.
func (o *Overlay) Discard() {
	o.ops = nil
	clear(o.pending)
}

func (o *Overlay) record(op Op) {
	o.ops = append(o.ops, op)
	o.pending[pendingKey{op.Tier, string(op.Key)}] = op
}

// Atomic runs fn against a fresh Overlay over s. The buffered writes reach s
// only when fn succeeds; otherwise they are discarded and s is left as it was.
func Atomic(ctx context.Context, s Store, fn func(tx Store) error) error {
	tx := NewOverlay(s)
	if err := fn(tx); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit(ctx)
}

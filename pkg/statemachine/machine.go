package statemachine

import (
	"context"

	"github.com/dmitrymomot/fsmkit/pkg/store"
)

// Machine binds a region and a storage tier to a store.
// It reads and writes the state of that region and holds no transition
// policy; that belongs to Transition.
type Machine[S any] struct {
	st     store.Store
	region Variant
	tier   store.Tier
}

// New creates a machine bound to region and tier. It performs no I/O.
func New[S any](st store.Store, region Variant, tier store.Tier) *Machine[S] {
	return &Machine[S]{st: st, region: region, tier: tier}
}

func (m *Machine[S]) Region() Variant {
	return m.region
}

func (m *Machine[S]) Tier() store.Tier {
	return m.tier
}

// Store returns the store the machine writes through. Inside a transition
// this is the invocation's write buffer, so machines for other regions built
// on it share the same all-or-nothing outcome.
func (m *Machine[S]) Store() store.Store {
	return m.st
}

// State returns the persisted state of the region. ok is false when the
// region was never initialized.
func (m *Machine[S]) State(ctx context.Context) (S, bool, error) {
	return store.Get[S](ctx, m.st, m.tier, m.region)
}

// SetState writes state unconditionally.
func (m *Machine[S]) SetState(ctx context.Context, state S) error {
	return store.Set(ctx, m.st, m.tier, m.region, state)
}

// RemoveState deletes the persisted state of the region.
func (m *Machine[S]) RemoveState(ctx context.Context) error {
	return store.Remove(ctx, m.st, m.tier, m.region)
}

// Matches reports whether the region is initialized and its state equals expected.
func (m *Machine[S]) Matches(ctx context.Context, expected S) (bool, error) {
	current, ok, err := m.State(ctx)
	if err != nil || !ok {
		return false, err
	}
	return store.Equal(current, expected)
}

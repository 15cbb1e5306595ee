package circuitbreaker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
	"github.com/dmitrymomot/fsmkit/pkg/store"
)

// DefaultCircuit is the region used by breakers built with Default.
var DefaultCircuit = statemachine.Tag("Circuit", "Default")

// Default returns the path of DefaultCircuit.
func Default[A any]() statemachine.Path[A] {
	return statemachine.Static[A](DefaultCircuit.Family, DefaultCircuit.Tag)
}

// Body is an operation guarded by a Breaker.
type Body[A any] func(ctx context.Context, m *statemachine.Machine[bool], args A) error

// Breaker is a two-state machine: true means opened, false means closed.
// Gated calls run only in one state; triggers set the state unconditionally.
type Breaker[A any] struct {
	region statemachine.Path[A]
	tier   store.Tier
	hooks  statemachine.Hooks[bool]
	logger *slog.Logger
}

// New creates a breaker for region. Use Default for a single global circuit
// or an embedded path for one circuit per entity.
func New[A any](region statemachine.Path[A], opts ...Option) *Breaker[A] {
	o := &options{
		tier:   store.Instance,
		hooks:  statemachine.NopHooks[bool]{},
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Breaker[A]{
		region: region,
		tier:   o.tier,
		hooks:  o.hooks,
		logger: o.logger.With(logger.Component("circuitbreaker")),
	}
}

// WhenOpened runs body only while the circuit is opened.
func (b *Breaker[A]) WhenOpened(ctx context.Context, st store.Store, args A, body Body[A]) error {
	return b.gate(ctx, st, args, true, body)
}

// WhenClosed runs body only while the circuit is closed.
// A circuit that was never set counts as closed.
func (b *Breaker[A]) WhenClosed(ctx context.Context, st store.Store, args A, body Body[A]) error {
	return b.gate(ctx, st, args, false, body)
}

// Open sets the circuit to opened regardless of its current state, then runs body.
// It is the trigger form of WhenClosed.
func (b *Breaker[A]) Open(ctx context.Context, st store.Store, args A, body Body[A]) error {
	return b.trigger(ctx, st, args, Target(false, true), body)
}

// Close sets the circuit to closed regardless of its current state, then runs body.
// It is the trigger form of WhenOpened.
func (b *Breaker[A]) Close(ctx context.Context, st store.Store, args A, body Body[A]) error {
	return b.trigger(ctx, st, args, Target(true, true), body)
}

// IsOpen reports whether the circuit is opened. It does not seed the state.
func (b *Breaker[A]) IsOpen(ctx context.Context, st store.Store, args A) (bool, error) {
	region, err := b.region.Resolve(args)
	if err != nil {
		return false, err
	}
	opened, _, err := statemachine.New[bool](st, region, b.tier).State(ctx)
	return opened, err
}

// Target returns the state a call declared for opened leaves the circuit in.
// Gated calls keep it, triggers write the opposite.
func Target(opened, trigger bool) bool {
	return opened != trigger
}

func (b *Breaker[A]) gate(ctx context.Context, st store.Store, args A, opened bool, body Body[A]) error {
	region, err := b.region.Resolve(args)
	if err != nil {
		return fmt.Errorf("region: %w", err)
	}

	err = store.Atomic(ctx, st, func(tx store.Store) error {
		m := statemachine.New[bool](tx, region, b.tier)

		_, ok, err := m.State(ctx)
		if err != nil {
			return err
		}
		if !ok {
			if err := m.SetState(ctx, false); err != nil {
				return err
			}
		}

		if err := statemachine.Enforce(ctx, m, b.hooks, opened); err != nil {
			return err
		}
		if body == nil {
			return nil
		}
		return body(ctx, m, args)
	})
	b.log(ctx, "gated call", region, opened, err)
	return err
}

func (b *Breaker[A]) trigger(ctx context.Context, st store.Store, args A, opened bool, body Body[A]) error {
	region, err := b.region.Resolve(args)
	if err != nil {
		return fmt.Errorf("region: %w", err)
	}

	err = store.Atomic(ctx, st, func(tx store.Store) error {
		m := statemachine.New[bool](tx, region, b.tier)

		if err := b.hooks.OnGuard(ctx, m); err != nil {
			return fmt.Errorf("%w: %w", statemachine.ErrGuardRejected, err)
		}
		if err := m.SetState(ctx, opened); err != nil {
			return err
		}
		if err := b.hooks.OnEffect(ctx, m); err != nil {
			return fmt.Errorf("%w: %w", statemachine.ErrEffectFailed, err)
		}
		if body == nil {
			return nil
		}
		return body(ctx, m, args)
	})
	b.log(ctx, "trigger", region, opened, err)
	return err
}

func (b *Breaker[A]) log(ctx context.Context, event string, region statemachine.Variant, state bool, err error) {
	if err != nil {
		b.logger.WarnContext(ctx, "circuit call rejected",
			logger.Event(event),
			logger.Region(region),
			logger.State(state),
			logger.Tier(b.tier),
			logger.Error(err),
		)
		return
	}
	b.logger.DebugContext(ctx, "circuit call applied",
		logger.Event(event),
		logger.Region(region),
		logger.State(state),
		logger.Tier(b.tier),
	)
}

package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/store"
)

// Body is the operation guarded by a Transition. m is bound to the
// transition's region and writes through the invocation's buffer.
type Body[A any] func(ctx context.Context, m *Machine[Variant], args A) error

// Transition guards an operation so it runs only while its region is in the
// expected state.
type Transition[A any] struct {
	region Path[A]
	state  Path[A]
	tier   store.Tier
	hooks  Hooks[Variant]
	logger *slog.Logger
}

// Option configures a Transition.
type Option func(*options)

type options struct {
	tier   store.Tier
	hooks  Hooks[Variant]
	logger *slog.Logger
}

// WithTier selects the storage tier of the region state. Defaults to store.Instance.
func WithTier(tier store.Tier) Option {
	return func(o *options) {
		o.tier = tier
	}
}

// WithHooks sets the guard and effect hooks. Nil hooks are ignored.
func WithHooks(h Hooks[Variant]) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = h
		}
	}
}

// WithLogger sets the logger used to report accepted and rejected calls.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Default returns the path of DefaultRegion.
func Default[A any]() Path[A] {
	return Static[A](DefaultRegion.Family, DefaultRegion.Tag)
}

// NewTransition declares a transition expecting state in region.
func NewTransition[A any](region, state Path[A], opts ...Option) *Transition[A] {
	o := &options{
		tier:   store.Instance,
		hooks:  NopHooks[Variant]{},
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Transition[A]{
		region: region,
		state:  state,
		tier:   o.tier,
		hooks:  o.hooks,
		logger: o.logger,
	}
}

func (t *Transition[A]) Tier() store.Tier {
	return t.tier
}

// Run executes the guarded sequence for args: guard hook, state validation,
// effect hook, then body. Writes made by any step are buffered and reach st
// only if every step succeeds.
func (t *Transition[A]) Run(ctx context.Context, st store.Store, args A, body Body[A]) error {
	region, err := t.region.Resolve(args)
	if err != nil {
		return fmt.Errorf("region: %w", err)
	}
	expected, err := t.state.Resolve(args)
	if err != nil {
		return fmt.Errorf("state: %w", err)
	}

	start := time.Now()
	err = store.Atomic(ctx, st, func(tx store.Store) error {
		m := New[Variant](tx, region, t.tier)
		if err := Enforce(ctx, m, t.hooks, expected); err != nil {
			return err
		}
		if body == nil {
			return nil
		}
		return body(ctx, m, args)
	})
	if err != nil {
		t.logger.WarnContext(ctx, "transition rejected",
			logger.Region(region),
			logger.State(expected),
			logger.Tier(t.tier),
			logger.Error(err),
		)
		return err
	}

	t.logger.DebugContext(ctx, "transition applied",
		logger.Region(region),
		logger.State(expected),
		logger.Tier(t.tier),
		logger.Duration(time.Since(start)),
	)
	return nil
}

// Wrap returns body guarded by the transition.
func (t *Transition[A]) Wrap(body Body[A]) func(ctx context.Context, st store.Store, args A) error {
	return func(ctx context.Context, st store.Store, args A) error {
		return t.Run(ctx, st, args, body)
	}
}

// Enforce runs the guard hook, checks that m is in the expected state and
// runs the effect hook. It does not buffer writes; callers that need the
// all-or-nothing guarantee run it inside store.Atomic.
func Enforce[S any](ctx context.Context, m *Machine[S], hooks Hooks[S], expected S) error {
	if hooks == nil {
		hooks = NopHooks[S]{}
	}

	if err := hooks.OnGuard(ctx, m); err != nil {
		return fmt.Errorf("%w: %w", ErrGuardRejected, err)
	}

	current, ok, err := m.State(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: region '%s'", ErrStateNotSet, m.Region())
	}

	eq, err := store.Equal(current, expected)
	if err != nil {
		return err
	}
	if !eq {
		return NewStateMismatchError(m.Region(), current, expected)
	}

	if err := hooks.OnEffect(ctx, m); err != nil {
		return fmt.Errorf("%w: %w", ErrEffectFailed, err)
	}
	return nil
}

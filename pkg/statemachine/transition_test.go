package statemachine_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
	"github.com/dmitrymomot/fsmkit/pkg/store"
)

type recorder struct {
	calls     []string
	guardErr  error
	effectErr error
}

func (r *recorder) OnGuard(ctx context.Context, m *statemachine.Machine[statemachine.Variant]) error {
	r.calls = append(r.calls, "guard")
	return r.guardErr
}

func (r *recorder) OnEffect(ctx context.Context, m *statemachine.Machine[statemachine.Variant]) error {
	r.calls = append(r.calls, "effect")
	return r.effectErr
}

type noArgs struct{}

var (
	idle = statemachine.Tag("Phase", "Idle")
	busy = statemachine.Tag("Phase", "Busy")
)

func seed(t *testing.T, st store.Store, region, state statemachine.Variant) {
	t.Helper()
	m := statemachine.New[statemachine.Variant](st, region, store.Instance)
	require.NoError(t, m.SetState(context.Background(), state))
}

func TestTransition_Order(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	seed(t, st, statemachine.DefaultRegion, idle)

	rec := &recorder{}
	tr := statemachine.NewTransition(
		statemachine.Default[noArgs](),
		statemachine.Static[noArgs]("Phase", "Idle"),
		statemachine.WithHooks(rec),
	)

	err := tr.Run(ctx, st, noArgs{}, func(ctx context.Context, m *statemachine.Machine[statemachine.Variant], _ noArgs) error {
		rec.calls = append(rec.calls, "body")
		return m.SetState(ctx, busy)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"guard", "effect", "body"}, rec.calls)

	m := statemachine.New[statemachine.Variant](st, statemachine.DefaultRegion, store.Instance)
	ok, err := m.Matches(ctx, busy)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTransition_Failures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")

	tests := []struct {
		name      string
		seed      *statemachine.Variant
		rec       *recorder
		body      error
		check     func(t *testing.T, err error)
		wantCalls []string
	}{
		{
			name: "guard rejects before state is read",
			seed: &idle,
			rec:  &recorder{guardErr: boom},
			check: func(t *testing.T, err error) {
				assert.True(t, statemachine.IsGuardRejectedError(err))
				assert.ErrorIs(t, err, boom)
			},
			wantCalls: []string{"guard"},
		},
		{
			name:      "state never set",
			rec:       &recorder{},
			check:     func(t *testing.T, err error) { assert.True(t, statemachine.IsStateNotSetError(err)) },
			wantCalls: []string{"guard"},
		},
		{
			name: "state mismatch",
			seed: &busy,
			rec:  &recorder{},
			check: func(t *testing.T, err error) {
				var mismatch *statemachine.StateMismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Contains(t, err.Error(), "Phase:Busy")
				assert.Contains(t, err.Error(), "Phase:Idle")
				assert.True(t, mismatch.Region.Equal(statemachine.DefaultRegion))
			},
			wantCalls: []string{"guard"},
		},
		{
			name:      "effect fails",
			seed:      &idle,
			rec:       &recorder{effectErr: boom},
			check:     func(t *testing.T, err error) { assert.ErrorIs(t, err, statemachine.ErrEffectFailed) },
			wantCalls: []string{"guard", "effect"},
		},
		{
			name:      "body fails",
			seed:      &idle,
			rec:       &recorder{},
			body:      boom,
			check:     func(t *testing.T, err error) { assert.ErrorIs(t, err, boom) },
			wantCalls: []string{"guard", "effect", "body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := store.NewMemoryStore()
			if tt.seed != nil {
				seed(t, st, statemachine.DefaultRegion, *tt.seed)
			}
			before := st.Entries(store.Instance)

			tr := statemachine.NewTransition(
				statemachine.Default[noArgs](),
				statemachine.Static[noArgs]("Phase", "Idle"),
				statemachine.WithHooks(tt.rec),
			)
			err := tr.Run(ctx, st, noArgs{}, func(ctx context.Context, m *statemachine.Machine[statemachine.Variant], _ noArgs) error {
				tt.rec.calls = append(tt.rec.calls, "body")
				if err := m.SetState(ctx, busy); err != nil {
					return err
				}
				other := statemachine.New[statemachine.Variant](m.Store(), statemachine.Tag("Room", "Other"), store.Persistent)
				if err := other.SetState(ctx, busy); err != nil {
					return err
				}
				return tt.body
			})

			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, tt.wantCalls, tt.rec.calls)

			// No partial effect.
			assert.Equal(t, before, st.Entries(store.Instance))
			assert.Empty(t, st.Entries(store.Persistent))
		})
	}
}

func TestTransition_EffectWritesAreDiscardedOnBodyFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	seed(t, st, statemachine.DefaultRegion, idle)

	tr := statemachine.NewTransition(
		statemachine.Default[noArgs](),
		statemachine.Static[noArgs]("Phase", "Idle"),
		statemachine.WithHooks(statemachine.HookFuncs[statemachine.Variant]{
			Effect: func(ctx context.Context, m *statemachine.Machine[statemachine.Variant]) error {
				return m.SetState(ctx, busy)
			},
		}),
	)
	err := tr.Run(ctx, st, noArgs{}, func(context.Context, *statemachine.Machine[statemachine.Variant], noArgs) error {
		return errors.New("body failed")
	})
	require.Error(t, err)

	m := statemachine.New[statemachine.Variant](st, statemachine.DefaultRegion, store.Instance)
	ok, err := m.Matches(ctx, idle)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTransition_ConstructionErrorsRunNoHooks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	rec := &recorder{}

	region, err := statemachine.ParsePath[lobbyArgs]("Room:Private:missing")
	require.NoError(t, err)

	tr := statemachine.NewTransition(region, statemachine.Static[lobbyArgs]("State", "Ready"), statemachine.WithHooks(rec))
	err = tr.Run(ctx, st, lobbyArgs{Account: "alice"}, nil)
	require.ErrorIs(t, err, statemachine.ErrUnresolvedPath)
	assert.Empty(t, rec.calls)
}

func TestTransition_ExtendedStateDisambiguation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()

	type buyerArgs struct {
		Buyer string
		Item  string
	}
	checkout := statemachine.NewTransition(
		statemachine.Embedded("Buyer", "Account", func(a buyerArgs) string { return a.Buyer }),
		statemachine.Embedded("Phase", "Distributing", func(a buyerArgs) string { return a.Item }),
	)

	// Bob is distributing the item Alice is asking for; Alice is distributing something else.
	seed(t, st, statemachine.MustWith("Buyer", "Account", "bob"), statemachine.MustWith("Phase", "Distributing", "latte"))
	seed(t, st, statemachine.MustWith("Buyer", "Account", "alice"), statemachine.MustWith("Phase", "Distributing", "tea"))

	err := checkout.Run(ctx, st, buyerArgs{Buyer: "alice", Item: "latte"}, nil)
	assert.True(t, statemachine.IsStateMismatchError(err))

	err = checkout.Run(ctx, st, buyerArgs{Buyer: "bob", Item: "latte"}, nil)
	assert.NoError(t, err)

	err = checkout.Run(ctx, st, buyerArgs{Buyer: "alice", Item: "tea"}, nil)
	assert.NoError(t, err)
}

func TestTransition_Tier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()

	tr := statemachine.NewTransition(
		statemachine.Default[noArgs](),
		statemachine.Static[noArgs]("Phase", "Idle"),
		statemachine.WithTier(store.Temporary),
	)
	assert.Equal(t, store.Temporary, tr.Tier())

	// Seeded in the instance tier only.
	seed(t, st, statemachine.DefaultRegion, idle)
	err := tr.Run(ctx, st, noArgs{}, nil)
	require.True(t, statemachine.IsStateNotSetError(err))

	m := statemachine.New[statemachine.Variant](st, statemachine.DefaultRegion, store.Temporary)
	require.NoError(t, m.SetState(ctx, idle))
	require.NoError(t, tr.Run(ctx, st, noArgs{}, nil))
}

func TestTransition_Wrap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	seed(t, st, statemachine.DefaultRegion, idle)

	toggle := statemachine.NewTransition(
		statemachine.Default[noArgs](),
		statemachine.Static[noArgs]("Phase", "Idle"),
	).Wrap(func(ctx context.Context, m *statemachine.Machine[statemachine.Variant], _ noArgs) error {
		return m.SetState(ctx, busy)
	})

	require.NoError(t, toggle(ctx, st, noArgs{}))
	assert.True(t, statemachine.IsStateMismatchError(toggle(ctx, st, noArgs{})))
}

func TestTransition_NestedRunsShareOutcome(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	game := statemachine.Tag("Domain", "Game")
	seed(t, st, statemachine.DefaultRegion, idle)
	seed(t, st, game, statemachine.Tag("Phase", "Start"))

	inner := statemachine.NewTransition(
		statemachine.Static[noArgs]("Domain", "Game"),
		statemachine.Static[noArgs]("Phase", "Start"),
	)
	outer := statemachine.NewTransition(
		statemachine.Default[noArgs](),
		statemachine.Static[noArgs]("Phase", "Idle"),
	)

	err := outer.Run(ctx, st, noArgs{}, func(ctx context.Context, m *statemachine.Machine[statemachine.Variant], a noArgs) error {
		if err := inner.Run(ctx, m.Store(), a, func(ctx context.Context, m *statemachine.Machine[statemachine.Variant], _ noArgs) error {
			return m.SetState(ctx, statemachine.Tag("Phase", "End"))
		}); err != nil {
			return err
		}
		return errors.New("outer failed after inner succeeded")
	})
	require.Error(t, err)

	m := statemachine.New[statemachine.Variant](st, game, store.Instance)
	ok, err := m.Matches(ctx, statemachine.Tag("Phase", "Start"))
	require.NoError(t, err)
	assert.True(t, ok, "inner writes must be rolled back with the outer call")
}

func TestTransition_Logging(t *testing.T) {
	t.Parallel()
	ctx := logger.WithContextAttrs(context.Background(), slog.String("game_id", "g1"))
	st := store.NewMemoryStore()
	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithLevel(-4))

	tr := statemachine.NewTransition(
		statemachine.Default[noArgs](),
		statemachine.Static[noArgs]("Phase", "Idle"),
		statemachine.WithLogger(log),
	)

	require.Error(t, tr.Run(ctx, st, noArgs{}, nil))
	assert.Contains(t, buf.String(), "transition rejected")
	assert.Contains(t, buf.String(), `"region":"StateMachineRegion:Default"`)
	assert.Contains(t, buf.String(), `"tier":"instance"`)
	assert.Contains(t, buf.String(), `"game_id":"g1"`)

	buf.Reset()
	seed(t, st, statemachine.DefaultRegion, idle)
	require.NoError(t, tr.Run(ctx, st, noArgs{}, nil))
	assert.Contains(t, buf.String(), "transition applied")
	assert.Contains(t, buf.String(), `"duration":`)
}

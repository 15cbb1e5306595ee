package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/store"
)

// plainStore hides the Batcher implementation of the wrapped store.
type plainStore struct {
	store.Store
	sets int
}

func (p *plainStore) Set(ctx context.Context, tier store.Tier, key, value []byte) error {
	p.sets++
	return p.Store.Set(ctx, tier, key, value)
}

type failingStore struct {
	store.Store
}

var errBackendDown = errors.New("backend down")

func (failingStore) Apply(context.Context, []store.Op) error {
	return errors.Join(store.ErrStoreUnavailable, errBackendDown)
}

func TestOverlay_ReadsOwnWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := store.NewMemoryStore()
	require.NoError(t, base.Set(ctx, store.Instance, []byte("a"), []byte("base")))
	require.NoError(t, base.Set(ctx, store.Instance, []byte("b"), []byte("base")))

	tx := store.NewOverlay(base)
	require.NoError(t, tx.Set(ctx, store.Instance, []byte("a"), []byte("buffered")))
	require.NoError(t, tx.Remove(ctx, store.Instance, []byte("b")))

	v, ok, err := tx.Get(ctx, store.Instance, []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("buffered"), v)

	has, err := tx.Has(ctx, store.Instance, []byte("b"))
	require.NoError(t, err)
	assert.False(t, has)

	// Base is untouched until commit.
	v, _, err = base.Get(ctx, store.Instance, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("base"), v)
	assert.Equal(t, 2, tx.Pending())
}

func TestOverlay_Commit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := store.NewMemoryStore()
	require.NoError(t, base.Set(ctx, store.Instance, []byte("b"), []byte("base")))

	tx := store.NewOverlay(base)
	require.NoError(t, tx.Set(ctx, store.Instance, []byte("a"), []byte("1")))
	require.NoError(t, tx.Remove(ctx, store.Instance, []byte("b")))
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, map[string][]byte{"a": []byte("1")}, base.Entries(store.Instance))
	assert.Zero(t, tx.Pending())
}

func TestOverlay_Discard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := store.NewMemoryStore()

	tx := store.NewOverlay(base)
	require.NoError(t, tx.Set(ctx, store.Temporary, []byte("a"), []byte("1")))
	tx.Discard()
	require.NoError(t, tx.Commit(ctx))

	assert.Empty(t, base.Entries(store.Temporary))
}

func TestOverlay_CommitWithoutBatcher(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := &plainStore{Store: store.NewMemoryStore()}

	tx := store.NewOverlay(base)
	require.NoError(t, tx.Set(ctx, store.Persistent, []byte("a"), []byte("1")))
	require.NoError(t, tx.Set(ctx, store.Persistent, []byte("b"), []byte("2")))
	require.NoError(t, tx.ExtendTTL(ctx, store.Persistent, []byte("a"), time.Minute, time.Hour))
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, 2, base.sets)
	has, err := base.Has(ctx, store.Persistent, []byte("b"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestOverlay_CommitFailureKeepsBuffer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := failingStore{Store: store.NewMemoryStore()}

	tx := store.NewOverlay(base)
	require.NoError(t, tx.Set(ctx, store.Instance, []byte("a"), []byte("1")))

	err := tx.Commit(ctx)
	require.Error(t, err)
	assert.True(t, store.IsUnavailable(err))
	assert.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, 1, tx.Pending())
}

func TestOverlay_Nested(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := store.NewMemoryStore()

	outer := store.NewOverlay(base)
	inner := store.NewOverlay(outer)
	require.NoError(t, inner.Set(ctx, store.Instance, []byte("a"), []byte("1")))
	require.NoError(t, inner.Commit(ctx))

	assert.Empty(t, base.Entries(store.Instance), "inner commit must only reach the outer buffer")

	v, ok, err := outer.Get(ctx, store.Instance, []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, outer.Commit(ctx))
	assert.Len(t, base.Entries(store.Instance), 1)
}

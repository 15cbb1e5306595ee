package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/circuitbreaker"
	"github.com/dmitrymomot/fsmkit/pkg/mongo"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
	"github.com/dmitrymomot/fsmkit/pkg/store"
)

func newStorage(t *testing.T, cfg store.Config) *mongo.Storage {
	t.Helper()

	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL is not set")
	}

	ctx := context.Background()
	mcfg := mongo.Config{
		ConnectionURL:  url,
		ConnectTimeout: 5 * time.Second,
		RetryAttempts:  1,
		MaxPoolSize:    10,
	}
	client, err := mongo.New(ctx, mcfg)
	require.NoError(t, err)

	db := client.Database("fsmkit_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	s := mongo.NewStorage(db, cfg)
	require.NoError(t, s.Healthcheck(ctx))
	require.NoError(t, s.EnsureIndexes(ctx))
	return s
}

func TestNew_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.New(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}

func TestStorage_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStorage(t, store.Config{TemporaryTTL: time.Hour})
	key := []byte(`"k"`)

	for _, tier := range []store.Tier{store.Instance, store.Persistent, store.Temporary} {
		ok, err := s.Has(ctx, tier, key)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Set(ctx, tier, key, []byte(tier.String())))
	}

	for _, tier := range []store.Tier{store.Instance, store.Persistent, store.Temporary} {
		v, ok, err := s.Get(ctx, tier, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, tier.String(), string(v))
	}

	require.NoError(t, s.Remove(ctx, store.Instance, key))
	_, ok, err := s.Get(ctx, store.Instance, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_Expiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStorage(t, store.Config{TemporaryTTL: 300 * time.Millisecond, InstanceTTL: 300 * time.Millisecond})
	short, extended := []byte(`"short"`), []byte(`"extended"`)

	require.NoError(t, s.Set(ctx, store.Temporary, short, []byte("1")))
	require.NoError(t, s.Set(ctx, store.Temporary, extended, []byte("1")))
	require.NoError(t, s.Set(ctx, store.Instance, short, []byte("1")))
	require.NoError(t, s.ExtendTTL(ctx, store.Temporary, extended, time.Second, time.Minute))

	time.Sleep(500 * time.Millisecond)

	ok, err := s.Has(ctx, store.Temporary, short)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Has(ctx, store.Temporary, extended)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Has(ctx, store.Instance, short)
	require.NoError(t, err)
	assert.False(t, ok, "instance lifetime elapsed")

	require.NoError(t, s.Set(ctx, store.Instance, extended, []byte("2")))
	ok, err = s.Has(ctx, store.Instance, short)
	require.NoError(t, err)
	assert.False(t, ok, "new lifetime starts empty")
}

func TestStorage_Apply(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStorage(t, store.Config{})

	require.NoError(t, s.Apply(ctx, []store.Op{
		{Kind: store.OpSet, Tier: store.Persistent, Key: []byte(`"a"`), Value: []byte("1")},
		{Kind: store.OpSet, Tier: store.Persistent, Key: []byte(`"a"`), Value: []byte("2")},
		{Kind: store.OpSet, Tier: store.Instance, Key: []byte(`"b"`), Value: []byte("3")},
		{Kind: store.OpRemove, Tier: store.Instance, Key: []byte(`"b"`)},
		{Kind: store.OpExtendTTL, Tier: store.Instance, Threshold: time.Second, ExtendTo: time.Minute},
	}))

	v, ok, err := s.Get(ctx, store.Persistent, []byte(`"a"`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", string(v), "ops apply in order")

	ok, err = s.Has(ctx, store.Instance, []byte(`"b"`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_CircuitBreaker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStorage(t, store.Config{})
	cb := circuitbreaker.New(circuitbreaker.Default[struct{}](), circuitbreaker.WithTier(store.Persistent))

	ran := false
	require.NoError(t, cb.WhenClosed(ctx, s, struct{}{}, func(context.Context, *statemachine.Machine[bool], struct{}) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)

	require.NoError(t, cb.Open(ctx, s, struct{}{}, nil))
	open, err := cb.IsOpen(ctx, s, struct{}{})
	require.NoError(t, err)
	assert.True(t, open)
}

func TestStorage_ApplyFailureLeavesNoWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStorage(t, store.Config{})

	tx, err := s.Transactional(ctx)
	require.NoError(t, err)
	if !tx {
		t.Skip("deployment does not support transactions")
	}

	kept := []byte(`"kept"`)
	require.NoError(t, s.Set(ctx, store.Persistent, kept, []byte("1")))

	// The last value exceeds the 16MiB document limit.
	err = s.Apply(ctx, []store.Op{
		{Kind: store.OpSet, Tier: store.Persistent, Key: []byte(`"a"`), Value: []byte("1")},
		{Kind: store.OpRemove, Tier: store.Persistent, Key: kept},
		{Kind: store.OpSet, Tier: store.Instance, Key: []byte(`"b"`), Value: make([]byte, 17<<20)},
	})
	require.Error(t, err)
	assert.True(t, store.IsUnavailable(err))

	ok, err := s.Has(ctx, store.Persistent, []byte(`"a"`))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Has(ctx, store.Persistent, kept)
	require.NoError(t, err)
	assert.True(t, ok, "the removal was rolled back")
}

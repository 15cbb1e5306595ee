package commitment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/commitment"
	"github.com/dmitrymomot/fsmkit/pkg/store"
)

func TestHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fn   commitment.HashFunc
		data string
		want string
	}{
		{commitment.SHA256, "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{commitment.SHA256, "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{commitment.Keccak256, "", "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
	}
	for _, tt := range tests {
		d, err := commitment.Hash(tt.fn, []byte(tt.data))
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.String(), "%s(%q)", tt.fn, tt.data)
	}

	_, err := commitment.Hash(commitment.HashFunc("md5"), nil)
	assert.ErrorIs(t, err, commitment.ErrUnsupportedHash)
}

func TestParseHashFunc(t *testing.T) {
	t.Parallel()

	fn, err := commitment.ParseHashFunc("SHA256")
	require.NoError(t, err)
	assert.Equal(t, commitment.SHA256, fn)

	fn, err = commitment.ParseHashFunc(" keccak256 ")
	require.NoError(t, err)
	assert.Equal(t, commitment.Keccak256, fn)

	_, err = commitment.ParseHashFunc("blake2b")
	assert.ErrorIs(t, err, commitment.ErrUnsupportedHash)
}

func TestDigest_Text(t *testing.T) {
	t.Parallel()

	d, err := commitment.Hash(commitment.SHA256, []byte("vote"))
	require.NoError(t, err)

	parsed, err := commitment.ParseDigest(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	raw, err := store.Encode(d)
	require.NoError(t, err)
	assert.Equal(t, `"`+d.String()+`"`, string(raw))

	_, err = commitment.ParseDigest("abcd")
	assert.ErrorIs(t, err, commitment.ErrInvalidDigest)

	_, err = commitment.ParseDigest(string(make([]byte, 64)))
	assert.ErrorIs(t, err, commitment.ErrInvalidDigest)
}

func TestCommitReveal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("round trip consumes commitment", func(t *testing.T) {
		t.Parallel()
		st := store.NewMemoryStore()
		data := []byte("rock+salt")
		d, err := commitment.Hash(commitment.SHA256, data)
		require.NoError(t, err)

		require.NoError(t, commitment.Commit(ctx, st, d))
		ok, err := commitment.Committed(ctx, st, d)
		require.NoError(t, err)
		assert.True(t, ok)

		revealed, err := commitment.Reveal(ctx, st, data)
		require.NoError(t, err)
		assert.Equal(t, d, revealed)

		_, err = commitment.Reveal(ctx, st, data)
		assert.True(t, commitment.IsCommitmentNotFound(err), "reveal is one-time")
	})

	t.Run("double commit fails", func(t *testing.T) {
		t.Parallel()
		st := store.NewMemoryStore()
		d, err := commitment.Hash(commitment.SHA256, []byte("x"))
		require.NoError(t, err)

		require.NoError(t, commitment.Commit(ctx, st, d))
		err = commitment.Commit(ctx, st, d)
		assert.True(t, commitment.IsAlreadyCommitted(err))
	})

	t.Run("wrong data", func(t *testing.T) {
		t.Parallel()
		st := store.NewMemoryStore()
		d, err := commitment.Hash(commitment.SHA256, []byte("paper"))
		require.NoError(t, err)
		require.NoError(t, commitment.Commit(ctx, st, d))

		_, err = commitment.Reveal(ctx, st, []byte("scissors"))
		assert.ErrorIs(t, err, commitment.ErrCommitmentNotFound)

		ok, err := commitment.Committed(ctx, st, d)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("keep and tiers", func(t *testing.T) {
		t.Parallel()
		st := store.NewMemoryStore()
		data := []byte("ballot")
		d, err := commitment.Hash(commitment.Keccak256, data)
		require.NoError(t, err)

		require.NoError(t, commitment.Commit(ctx, st, d, commitment.WithTier(store.Temporary)))

		_, err = commitment.Reveal(ctx, st, data, commitment.WithHash(commitment.Keccak256))
		require.ErrorIs(t, err, commitment.ErrCommitmentNotFound, "instance tier holds nothing")

		_, err = commitment.Reveal(ctx, st, data,
			commitment.WithHash(commitment.Keccak256),
			commitment.WithTier(store.Temporary),
			commitment.WithKeep(),
		)
		require.NoError(t, err)

		ok, err := commitment.Committed(ctx, st, d, commitment.WithTier(store.Temporary))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unsupported hash", func(t *testing.T) {
		t.Parallel()
		_, err := commitment.Reveal(ctx, store.NewMemoryStore(), nil, commitment.WithHash("sha1"))
		assert.ErrorIs(t, err, commitment.ErrUnsupportedHash)
	})
}

package commitment

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/fsmkit/pkg/store"
)

// sentinel is stored under a committed digest; only the key's presence matters.
const sentinel = 0

// Option configures Commit and Reveal.
type Option func(*options)

type options struct {
	tier store.Tier
	hash HashFunc
	keep bool
}

func defaultOptions() *options {
	return &options{
		tier: store.Instance,
		hash: SHA256,
	}
}

// WithTier selects the tier the commitment is kept in. Defaults to store.Instance.
func WithTier(tier store.Tier) Option {
	return func(o *options) {
		o.tier = tier
	}
}

// WithHash selects the hash function Reveal applies to the revealed data.
// Defaults to SHA256.
func WithHash(fn HashFunc) Option {
	return func(o *options) {
		o.hash = fn
	}
}

// WithKeep keeps the commitment after a successful reveal.
func WithKeep() Option {
	return func(o *options) {
		o.keep = true
	}
}

// Commit records digest as a one-time token. Committing the same digest twice
// fails with ErrAlreadyCommitted.
func Commit(ctx context.Context, st store.Store, digest Digest, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	exists, err := store.Has(ctx, st, o.tier, digest)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyCommitted, digest)
	}
	return store.Set(ctx, st, o.tier, digest, sentinel)
}

// Reveal hashes data and checks that the digest was committed. The commitment
// is removed unless WithKeep is given. It returns the computed digest.
func Reveal(ctx context.Context, st store.Store, data []byte, opts ...Option) (Digest, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	digest, err := Hash(o.hash, data)
	if err != nil {
		return Digest{}, err
	}

	exists, err := store.Has(ctx, st, o.tier, digest)
	if err != nil {
		return Digest{}, err
	}
	if !exists {
		return Digest{}, fmt.Errorf("%w: %s", ErrCommitmentNotFound, digest)
	}

	if !o.keep {
		if err := store.Remove(ctx, st, o.tier, digest); err != nil {
			return Digest{}, err
		}
	}
	return digest, nil
}

// Committed reports whether digest is currently committed.
func Committed(ctx context.Context, st store.Store, digest Digest, opts ...Option) (bool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return store.Has(ctx, st, o.tier, digest)
}

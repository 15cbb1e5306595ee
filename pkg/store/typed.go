package store

import (
	"context"
	"time"
)

// Get reads and decodes the value stored under key.
// The key may be any encodable value.
func Get[V any](ctx context.Context, s Store, tier Tier, key any) (V, bool, error) {
	var zero V

	k, err := Encode(key)
	if err != nil {
		return zero, false, err
	}

	raw, ok, err := s.Get(ctx, tier, k)
	if err != nil || !ok {
		return zero, false, err
	}

	var v V
	if err := Decode(raw, &v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// GetOrElse reads the value under key and hands the result, present or not,
// to handler.
func GetOrElse[V, R any](ctx context.Context, s Store, tier Tier, key any, handler func(v V, ok bool) R) (R, error) {
	v, ok, err := Get[V](ctx, s, tier, key)
	if err != nil {
		var zero R
		return zero, err
	}
	return handler(v, ok), nil
}

// Set encodes and stores value under key.
func Set[V any](ctx context.Context, s Store, tier Tier, key any, value V) error {
	k, err := Encode(key)
	if err != nil {
		return err
	}
	v, err := Encode(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, tier, k, v)
}

// Has reports whether an entry exists under key.
func Has(ctx context.Context, s Store, tier Tier, key any) (bool, error) {
	k, err := Encode(key)
	if err != nil {
		return false, err
	}
	return s.Has(ctx, tier, k)
}

// Remove deletes the entry under key.
func Remove(ctx context.Context, s Store, tier Tier, key any) error {
	k, err := Encode(key)
	if err != nil {
		return err
	}
	return s.Remove(ctx, tier, k)
}

// ExtendTTL extends the lifetime of the entry under key.
func ExtendTTL(ctx context.Context, s Store, tier Tier, key any, threshold, extendTo time.Duration) error {
	k, err := Encode(key)
	if err != nil {
		return err
	}
	return s.ExtendTTL(ctx, tier, k, threshold, extendTo)
}

// Package store defines the key-value surface the state machine engine
// persists through, together with a concurrent in-memory backend, a write
// buffering Overlay and typed convenience helpers.
//
// Every entry lives in one of three tiers:
//
//   - Temporary: cleared after a bounded window (Config.TemporaryTTL).
//   - Persistent: survives indefinitely unless a TTL is configured; may be
//     extended explicitly with ExtendTTL.
//   - Instance: tied to the lifetime of the owning instance. ExtendTTL on this
//     tier extends the instance as a whole.
//
// # Backends
//
// Any type satisfying Store can be plugged in. MemoryStore ships with this
// package; Redis, PostgreSQL and MongoDB backends live in the redis, pg and
// mongo packages. Backends that can apply several writes in one step also
// implement Batcher.
//
// Missing keys are never errors: Get returns ok == false. Every other failure
// is wrapped with ErrStoreUnavailable and should be treated as fatal for the
// current invocation.
//
// # Usage
//
//	s := store.NewMemoryStore()
//
//	if err := store.Set(ctx, s, store.Instance, "greeting", "hello"); err != nil {
//	    return err
//	}
//	v, ok, err := store.Get[string](ctx, s, store.Instance, "greeting")
//
// # Overlay
//
// Overlay buffers writes until Commit, which is how a failed invocation is
// guaranteed to leave the underlying store exactly as it found it:
//
//	tx := store.NewOverlay(s)
//	_ = tx.Set(ctx, store.Instance, key, value)
//	if err := doWork(ctx, tx); err != nil {
//	    tx.Discard()
//	    return err
//	}
//	return tx.Commit(ctx)
//
// # Encoding
//
// Encode and Decode implement the deterministic encoding used for keys and
// values. Equal values always produce equal bytes, which is what state
// matching relies on.
package store

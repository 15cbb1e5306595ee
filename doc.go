// Package fsmkit is a persistent finite-state-machine engine for programs
// whose state lives in an external key-value store between invocations.
//
// The engine guarantees that an operation runs only while its region is in
// the expected state. Everything lives under pkg/:
//
//   - store: the tiered key-value contract, the in-memory backend, typed
//     helpers and the write overlay that makes a transition all-or-nothing.
//   - statemachine: regions, states, extended-state paths and the
//     guard, validate, effect and body transition protocol.
//   - circuitbreaker: a two-state machine with gated and trigger calls.
//   - commitment: commit/reveal of sha256 or keccak256 digests.
//   - redis, pg, mongo: store backends; cache: a read-through LRU over any
//     of them; backend: selects and opens one from the environment.
//   - config, logger: environment loading and structured logging.
//
// A minimal gated operation:
//
//	insertCoin := statemachine.NewTransition(
//	    statemachine.Default[Args](),
//	    statemachine.Static[Args]("Machine", "Refilled"),
//	)
//	err := insertCoin.Run(ctx, st, args, func(ctx context.Context, m *statemachine.Machine[statemachine.Variant], a Args) error {
//	    return m.SetState(ctx, statemachine.Tag("Machine", "Paid"))
//	})
package fsmkit

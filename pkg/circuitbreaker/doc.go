// Package circuitbreaker specializes the statemachine engine to a boolean
// latch: true means opened, false means closed.
//
// Two kinds of calls are offered. Gated calls (WhenOpened, WhenClosed) run
// their body only while the circuit is in the required state and fail with a
// statemachine.StateMismatchError otherwise. Triggers (Open, Close) write the
// target state without looking at the current one, so repeating a trigger is
// harmless.
//
// A circuit that was never written counts as closed: the first gated call
// seeds it to false before validating. The seed is part of the call and is
// dropped with everything else when the call fails.
//
// Hooks run on both kinds of calls. On gated calls OnGuard runs before the
// state check and OnEffect after it. On triggers OnGuard runs before the write
// and OnEffect after it.
//
// # Usage
//
//	type Account struct{ ID string }
//
//	// one circuit for the whole instance
//	pause := circuitbreaker.New(circuitbreaker.Default[Account]())
//
//	// one circuit per account
//	frozen := circuitbreaker.New(
//	    statemachine.Embedded("Circuit", "Account", func(a Account) string { return a.ID }),
//	)
//
//	err := pause.WhenClosed(ctx, st, acc, func(ctx context.Context, m *statemachine.Machine[bool], a Account) error {
//	    return transfer(ctx, m.Store(), a)
//	})
//
//	_ = pause.Open(ctx, st, acc, nil)
package circuitbreaker

// Package statemachine implements a finite-state-machine engine whose state
// lives in a store.Store and survives across invocations.
//
// A machine is split into independent regions. Each region has at most one
// persisted state per storage tier, keyed by the encoded region value, so
// advancing one region never touches another. Regions and states are both
// Variants: a family, a tag and an optional embedded payload. The payload is
// what lets one declared family track many entities at once, for example a
// "Players" region per player or a "Committing" state per player.
//
// # Architecture
//
// The package has three layers:
//
//  1. Machine binds (store, region, tier) and reads or writes the region
//     state. It holds no policy.
//  2. Path describes how to build a region or state Variant from the
//     arguments of a call, either as a bare tag or with an embedded value
//     evaluated on every call.
//  3. Transition wraps an operation with the guarded sequence:
//     guard hook, state validation, effect hook, operation body.
//
// All writes made during a Transition go through a store.Overlay and reach
// the store only when every step succeeds. A rejected call leaves the store
// exactly as it found it.
//
// # Usage
//
//	type PlayArgs struct {
//	    Player string `fsm:"player"`
//	}
//
//	play := statemachine.NewTransition(
//	    statemachine.Embedded("Domain", "Players", func(a PlayArgs) string { return a.Player }),
//	    statemachine.Embedded("Phase", "Committing", func(a PlayArgs) string { return a.Player }),
//	    statemachine.WithHooks(game),
//	)
//
//	err := play.Run(ctx, st, PlayArgs{Player: "alice"}, func(ctx context.Context, m *statemachine.Machine[statemachine.Variant], a PlayArgs) error {
//	    return m.SetState(ctx, statemachine.MustWith("Phase", "Revealing", a.Player))
//	})
//
// Seeding a region is a plain write through Machine:
//
//	m := statemachine.New[statemachine.Variant](st, region, store.Instance)
//	_ = m.SetState(ctx, statemachine.Tag("Phase", "Start"))
//
// # Declarations
//
// Transitions can also be declared with strings in the "Family:Tag[:param]"
// form, either in code with ParsePath or from YAML with LoadDeclarations and
// FromDeclaration. The param names an argument field (matched by `fsm` tag or
// field name) or a map key.
//
// # Error Handling
//
// Every failure aborts the call:
//
//	statemachine.IsConstructionError(err) // malformed or unresolvable path
//	statemachine.IsGuardRejectedError(err)
//	statemachine.IsStateNotSetError(err)  // region never seeded
//	statemachine.IsStateMismatchError(err)
//	store.IsUnavailable(err)
package statemachine

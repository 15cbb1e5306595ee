package statemachine

import "context"

// Hooks are called around state validation of a gated call.
//
// OnGuard runs before the state is read. Returning an error rejects the call.
// OnEffect runs only after the state matched and is where the state of this or
// other regions is usually advanced. Returning an error aborts the call.
type Hooks[S any] interface {
	OnGuard(ctx context.Context, m *Machine[S]) error
	OnEffect(ctx context.Context, m *Machine[S]) error
}

// NopHooks implements Hooks with no-ops.
type NopHooks[S any] struct{}

func (NopHooks[S]) OnGuard(context.Context, *Machine[S]) error  { return nil }
func (NopHooks[S]) OnEffect(context.Context, *Machine[S]) error { return nil }

// HookFuncs adapts plain functions to Hooks. Nil functions are skipped.
type HookFuncs[S any] struct {
	Guard  func(ctx context.Context, m *Machine[S]) error
	Effect func(ctx context.Context, m *Machine[S]) error
}

func (h HookFuncs[S]) OnGuard(ctx context.Context, m *Machine[S]) error {
	if h.Guard == nil {
		return nil
	}
	return h.Guard(ctx, m)
}

func (h HookFuncs[S]) OnEffect(ctx context.Context, m *Machine[S]) error {
	if h.Effect == nil {
		return nil
	}
	return h.Effect(ctx, m)
}

var (
	_ Hooks[Variant] = NopHooks[Variant]{}
	_ Hooks[bool]    = HookFuncs[bool]{}
)

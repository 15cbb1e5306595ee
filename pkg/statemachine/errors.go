package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPath    = errors.New("invalid state path: family and tag are required")
	ErrUnresolvedPath = errors.New("failed to resolve embedded value of state path")
	ErrGuardRejected  = errors.New("transition rejected by guard")
	ErrEffectFailed   = errors.New("transition effect failed")
	ErrStateNotSet    = errors.New("expected state was never set")
)

// StateMismatchError reports a gated call made while the region was in a
// different state than the one it expects.
type StateMismatchError struct {
	Region   Variant
	Current  any
	Expected any
}

func (e *StateMismatchError) Error() string {
	return fmt.Sprintf("state mismatch in region '%s': current '%v', expected '%v'", e.Region, e.Current, e.Expected)
}

func NewStateMismatchError(region Variant, current, expected any) *StateMismatchError {
	return &StateMismatchError{
		Region:   region,
		Current:  current,
		Expected: expected,
	}
}

func IsStateMismatchError(err error) bool {
	var e *StateMismatchError
	return errors.As(err, &e)
}

func IsStateNotSetError(err error) bool {
	return errors.Is(err, ErrStateNotSet)
}

func IsGuardRejectedError(err error) bool {
	return errors.Is(err, ErrGuardRejected)
}

// IsConstructionError reports whether err comes from a malformed or
// unresolvable path rather than from the transition itself.
func IsConstructionError(err error) bool {
	return errors.Is(err, ErrInvalidPath) || errors.Is(err, ErrUnresolvedPath)
}

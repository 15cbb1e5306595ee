package store

import "errors"

var (
	// ErrStoreUnavailable wraps every backend I/O failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidTier = errors.New("invalid storage tier")
	ErrInvalidOp   = errors.New("invalid batch operation")
	ErrEmptyKey    = errors.New("storage key cannot be empty")

	ErrEncodeFailed = errors.New("failed to encode value")
	ErrDecodeFailed = errors.New("failed to decode value")
)

// IsUnavailable reports whether err originates from a backend failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

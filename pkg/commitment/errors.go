package commitment

import "errors"

var (
	ErrAlreadyCommitted   = errors.New("commitment already exists")
	ErrCommitmentNotFound = errors.New("commitment not found")
	ErrUnsupportedHash    = errors.New("unsupported hash function")
	ErrInvalidDigest      = errors.New("invalid digest")
)

func IsAlreadyCommitted(err error) bool {
	return errors.Is(err, ErrAlreadyCommitted)
}

func IsCommitmentNotFound(err error) bool {
	return errors.Is(err, ErrCommitmentNotFound)
}

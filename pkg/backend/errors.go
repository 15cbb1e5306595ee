package backend

import "errors"

var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrMissingConfig  = errors.New("backend configuration missing")
)

package mongo

import "errors"

// Connection errors. Storage I/O failures wrap store.ErrStoreUnavailable.
var (
	ErrEmptyConnectionURL = errors.New("mongo: empty connection URL")
	ErrConnectFailed      = errors.New("mongo: failed to connect")
	ErrHealthcheckFailed  = errors.New("mongo: healthcheck failed")
)

package config

import "errors"

var (
	// ErrParsingConfig wraps the env parser error, e.g. a missing required
	// variable or a malformed duration.
	ErrParsingConfig = errors.New("config: failed to parse environment")

	ErrLoadingEnvFile = errors.New("config: failed to load env file")

	// ErrConfigNotLoaded is returned for a type whose first parse failed.
	// ResetCache or ForceReloadConfig allow another attempt.
	ErrConfigNotLoaded = errors.New("config: configuration has not been loaded")

	ErrNilPointer = errors.New("config: nil pointer")
)

// Package config loads configuration structs from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - LoadEnv reads one or more .env files into the process environment;
//     the default .env in the working directory is read automatically on
//     first use of Load when it exists.
//   - Load parses the environment into any struct annotated with `env`
//     tags and caches the result per type, so each config is parsed once.
//   - MustLoad and MustLoadEnv panic instead of returning an error.
//   - ResetCache and ForceReloadConfig drop cached values, which is mostly
//     useful in tests.
//
// # Usage
//
//	var cfg backend.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// Every fsmkit package that reads the environment exposes its own Config
// struct (store.Config, redis.Config, pg.Config, mongo.Config, logger.Config,
// backend.Config) meant to be loaded this way.
//
// # Errors
//
//   - ErrParsingConfig: env vars could not be parsed into the struct.
//   - ErrLoadingEnvFile: a .env file could not be read.
//   - ErrConfigNotLoaded: the type failed to load earlier; reset or force a reload.
//   - ErrNilPointer: nil pointer passed to Load.
package config

// Package logger provides a context-aware wrapper around log/slog with
// functional options, attribute helpers and injection of values stored in
// context.Context.
//
// New creates a *slog.Logger configured by Option functions. These select the
// output format and level, attach static attributes, and register
// ContextExtractor callbacks that add attributes on every Handle call.
// WithContextAttrs attaches attributes to a context.Context; every record
// logged with that context carries them.
// FromConfig does the same from a Config loaded from the environment.
//
// # Attributes
//
// Helpers in attr.go keep attribute naming consistent across packages:
// Region, State and Tier describe a state machine call, Backend and
// InstanceID describe the store, and Error and Errors skip nil errors so
// callers can log without a nil check:
//
//	log.WarnContext(ctx, "transition rejected",
//	    logger.Region(region),
//	    logger.State(expected),
//	    logger.Tier(tier),
//	    logger.Error(err),
//	)
//
// # Usage
//
//	import "github.com/dmitrymomot/fsmkit/pkg/logger"
//
//	log := logger.New(
//	    logger.WithDevelopment("game-service"),
//	    logger.WithContextValue("invocation_id", ctxKeyInvocation),
//	)
//	logger.SetAsDefault(log)
//
// Libraries in this module default to Discard when no logger is supplied.
package logger

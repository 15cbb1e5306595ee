package circuitbreaker

import (
	"log/slog"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
	"github.com/dmitrymomot/fsmkit/pkg/store"
)

// Option configures a Breaker.
type Option func(*options)

type options struct {
	tier   store.Tier
	hooks  statemachine.Hooks[bool]
	logger *slog.Logger
}

// WithTier selects the storage tier of the circuit state. Defaults to store.Instance.
func WithTier(tier store.Tier) Option {
	return func(o *options) {
		o.tier = tier
	}
}

// WithHooks sets guard and effect hooks. They run on gated calls and triggers alike.
func WithHooks(h statemachine.Hooks[bool]) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = h
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

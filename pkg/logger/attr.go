package logger

import (
	"fmt"
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Region records a state machine region under the key "region".
// If region is nil, it returns an empty Attr.
func Region(region fmt.Stringer) slog.Attr {
	if region == nil {
		return slog.Attr{}
	}
	return slog.String("region", region.String())
}

// State records a state value under the key "state".
// If state is nil, it returns an empty Attr.
func State(state any) slog.Attr {
	if state == nil {
		return slog.Attr{}
	}
	return slog.String("state", fmt.Sprint(state))
}

// Tier records a storage tier under the key "tier".
func Tier(tier fmt.Stringer) slog.Attr {
	if tier == nil {
		return slog.Attr{}
	}
	return slog.String("tier", tier.String())
}

// Backend records the store backend name under the key "backend".
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// InstanceID records the owning instance identifier under the key "instance_id".
// If id is empty, it returns an empty Attr.
func InstanceID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("instance_id", id)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

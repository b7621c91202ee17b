package logger

import (
	"fmt"
	"log/slog"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// MachineID records the state machine identifier under the key "machine_id".
func MachineID(id string) slog.Attr {
	return slog.String("machine_id", id)
}

// State records a state under the key "state".
func State(state any) slog.Attr {
	return slog.String("state", fmt.Sprint(state))
}

// Event records an event under the key "event".
func Event(event any) slog.Attr {
	return slog.String("event", fmt.Sprint(event))
}

// Entity records the managed entity under the key "entity" using its %T type
// name, which keeps entity contents out of the logs.
func Entity(entity any) slog.Attr {
	return slog.String("entity", fmt.Sprintf("%T", entity))
}

// Cause records an eviction or failure cause under the key "cause".
func Cause(cause any) slog.Attr {
	return slog.String("cause", fmt.Sprint(cause))
}

// Package logger provides a context-aware wrapper around Go's slog package
// with functional options and attribute helpers shared by the binding service
// and the state machine engine.
//
// New builds a *slog.Logger: it selects slog.NewTextHandler or
// slog.NewJSONHandler based on the configured Format, applies static
// attributes, and wraps the result in a ContextHandler that runs registered
// ContextExtractor callbacks on every record.
//
// # Usage
//
//	import "github.com/dmitrymomot/fsmbind/pkg/logger"
//
//	log := logger.New(
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithFormat(logger.FormatText),
//	    logger.WithAttr(logger.Component("orders")),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//
//	log.InfoContext(ctx, "bound", logger.MachineID(id), logger.State(state))
//
// # Attribute helpers
//
// MachineID, State, Event, Entity and Cause keep key names consistent across
// packages. Entity logs only the dynamic type of the entity.
//
// Use Nop in tests to silence output.
package logger

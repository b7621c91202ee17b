// Package mongo keeps entity states in a MongoDB collection so that a
// binding service can drive entities addressed by identifier.
//
// Connect opens a client with retries, Healthcheck adapts it to readiness
// probes, and StateStore implements the Read/Write pair expected by
// fsmbind.WithAccessor. Every entity is one document:
//
//	{_id: <entity id>, state: <state name>, updated_at: <time>}
//
// A missing document reads as the null state.
//
// Config fields are loaded from MONGODB_* environment variables.
package mongo

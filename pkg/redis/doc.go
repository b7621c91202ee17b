// Package redis keeps entity states in Redis so that a binding service can
// drive entities addressed by identifier rather than by in-memory value.
//
// Connect opens a client with retries, Healthcheck adapts it to readiness
// probes, and StateStore implements the Read/Write pair expected by
// fsmbind.WithAccessor:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := redis.NewStateStore[OrderID, OrderState](client, redis.WithKeyPrefix("orders:state:"))
//	svc, err := fsmbind.New[OrderID](factory, fsmbind.WithAccessor[OrderID, OrderState](store))
//
// Each entity occupies one string key, prefix+id, holding the state name. A
// missing key reads as the null state, so a fresh entity starts from the
// machine's initial state.
//
// Config fields are loaded from REDIS_* environment variables.
package redis

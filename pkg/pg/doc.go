// Package pg keeps entity states in a PostgreSQL table so that a binding
// service can drive entities addressed by identifier.
//
// Connect opens a pgx pool with retries, Migrate creates the state table
// from the embedded goose migrations, and StateStore implements the
// Read/Write pair expected by fsmbind.WithAccessor:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//	store := pg.NewStateStore[OrderID, OrderState](pool)
//
// Rows live in fsm_entity_states keyed by (namespace, entity_id). A missing
// row reads as the null state.
//
// Config fields are loaded from PG_* environment variables.
package pg

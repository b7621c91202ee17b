package fsmbind

import (
	"context"

	"github.com/dmitrymomot/fsmbind/pkg/logger"
	"github.com/dmitrymomot/fsmbind/pkg/statemachine"
)

// entityListener mirrors every accepted transition onto its bound entity.
type entityListener[O comparable, S, E comparable] struct {
	entity O
	svc    *Service[O, S, E]
}

func (l *entityListener[O, S, E]) OnTransition(ctx context.Context, sc *statemachine.StateContext[S, E]) {
	if err := l.svc.accessor.Write(l.entity, sc.To); err != nil {
		err = accessError(err)
		// The machine has already moved; the next SendEvent reports the drift.
		l.svc.logger.WarnContext(ctx, "failed to write entity state",
			logger.Entity(l.entity),
			logger.State(sc.To),
			logger.Error(err),
		)
		l.svc.observer.OnWriteFailure(ctx, l.entity, sc.To, err)
		return
	}

	var id string
	if sc.Machine != nil {
		id = sc.Machine.ID()
	}
	l.svc.observer.OnTransition(ctx, l.entity, id, sc.From, sc.To, sc.Event())
}

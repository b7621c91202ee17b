package fsmbind_test

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/fsmbind"
	"github.com/dmitrymomot/fsmbind/pkg/logger"
	"github.com/dmitrymomot/fsmbind/pkg/statemachine"
)

type Order struct {
	Number string
	Status string `fsm:"state"`
}

func Example() {
	ctx := context.Background()

	flow := statemachine.MustNewFactory("new",
		statemachine.WithStates[string, string]("new", "paid", "shipped"),
		statemachine.WithLogger[string, string](logger.Nop()),
		statemachine.WithTransition("new", "paid", "pay"),
		statemachine.WithTransition[string, string]("paid", "shipped", "ship"),
	)

	svc := fsmbind.MustNew[*Order](fsmbind.FromStateMachine(flow),
		fsmbind.WithLogger(logger.Nop()),
		fsmbind.WithCleanupInterval(0),
	)
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	defer svc.Stop(ctx)

	order := &Order{Number: "A-1001", Status: "new"}
	for _, event := range []string{"ship", "pay", "ship"} {
		accepted, err := svc.SendEvent(ctx, order, event)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s: accepted=%t status=%s\n", event, accepted, order.Status)
	}

	// Output:
	// ship: accepted=false status=new
	// pay: accepted=true status=paid
	// ship: accepted=true status=shipped
}

func ExampleNewAction() {
	ctx := context.Background()

	notify := fsmbind.NewAction(func(_ context.Context, o *Order, sc *statemachine.StateContext[string, string]) error {
		fmt.Printf("order %s: %s -> %s\n", o.Number, sc.From, sc.To)
		return nil
	})

	flow := statemachine.MustNewFactory("new",
		statemachine.WithStates[string, string]("new", "paid"),
		statemachine.WithLogger[string, string](logger.Nop()),
		statemachine.WithTransition("new", "paid", "pay", statemachine.WithAction(notify.Execute)),
	)

	svc := fsmbind.MustNew[*Order](fsmbind.FromStateMachine(flow),
		fsmbind.WithLogger(logger.Nop()),
		fsmbind.WithCleanupInterval(0),
		fsmbind.WithAdapters(notify),
	)
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	defer svc.Stop(ctx)

	if _, err := svc.SendEvent(ctx, &Order{Number: "A-1002", Status: "new"}, "pay"); err != nil {
		panic(err)
	}

	// Output:
	// order A-1002: new -> paid
}

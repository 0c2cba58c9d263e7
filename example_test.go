package pressline_test

import (
	"context"
	"fmt"

	"github.com/aretw0/pressline"
	"github.com/aretw0/pressline/internal/logging"
	"github.com/aretw0/pressline/internal/seed"
	"github.com/aretw0/pressline/pkg/adapters/memory"
	"github.com/aretw0/pressline/pkg/script"
)

func Example() {
	ctx := context.Background()

	store := memory.NewStore()
	graphs, _ := seed.Load("")
	_ = seed.Apply(ctx, store, graphs, logging.NewNop())

	eng := pressline.New(store, pressline.WithPersistedFlows("about"))
	ctrl := eng.NewController("customer-42")

	start, _ := ctrl.Start(ctx, "about", nil, nil)
	fmt.Println(start.Messages[0].Text)
	for _, qr := range start.QuickReplies {
		fmt.Println("-", qr.Label)
	}

	res, _ := ctrl.Send(ctx, "contact")
	fmt.Println(res.Messages[len(res.Messages)-1].Text)
	fmt.Println(res.ActiveNodeID)

	// Output:
	// Hi! What would you like to know about our print shop?
	// - Services
	// - Contact
	// - Goodbye
	// Reach us at hello@pressline.example or drop by the shop on Main Street.
	// about-contact
}

func Example_scripted() {
	ctx := context.Background()

	eng := pressline.New(memory.NewStore(), pressline.WithRegistry(script.DefaultRegistry()))
	ctrl := eng.NewController("")

	start, _ := ctrl.Start(ctx, "guest_place_order", nil, map[string]any{"name": "Ada"})
	for _, m := range start.Messages {
		fmt.Println(m.Text)
	}

	res, _ := ctrl.Send(ctx, "Business Cards")
	fmt.Println(res.Messages[len(res.Messages)-1].Text)
	fmt.Println(len(res.Messages), ctrl.State().SessionID == "")

	// Output:
	// Hi Ada! Let's get your print order started.
	// What would you like us to print?
	// Great choice. How many Business Cards do you need?
	// 4 true
}

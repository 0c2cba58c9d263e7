/*
Package pressline is the conversation engine of a print-shop chat assistant.

A conversation follows a flow: a graph of nodes joined by labelled options.
Flows come in two kinds. Store-backed flows live in a dialog store; every
turn is persisted and the user may leave and resume later. Scripted flows are
in-memory objects whose transcript is held by the caller.

The Engine hides the difference behind one Start, Send and End contract.

# Usage

	store, _ := sqlstore.Open("sqlite", "pressline.db")
	_ = store.AutoMigrate()

	eng := pressline.New(store,
		pressline.WithPersistedFlows("about"),
		pressline.WithRegistry(script.DefaultRegistry()),
	)

	ctrl := eng.NewController("customer-42")
	res, _ := ctrl.Start(ctx, "about", nil, nil)
	res2, _ := ctrl.Send(ctx, "Services")

Inputs that match no option produce a fallback reply, never an error.
Transient store failures are logged and degrade the turn instead of failing it.
*/
package pressline

// Package tests holds shared fixtures for dialog store and conversation tests.
package tests

import "github.com/aretw0/pressline/pkg/domain"

// Graph bundles an authored flow with its nodes and options.
type Graph struct {
	Flow    domain.Flow
	Nodes   []domain.Node
	Options []domain.Option
}

// AboutFlow is a small store-backed flow with a terminal node.
//
//	about-start --Services--> about-services --Back--> about-start
//	            --Contact---> about-contact  --Back--> about-start
//	            --Goodbye---> about-end
func AboutFlow() Graph {
	flow := domain.Flow{ID: "about", Title: "About Us"}
	return Graph{
		Flow: flow,
		Nodes: []domain.Node{
			{ID: "about-start", FlowID: flow.ID, Kind: domain.NodeStart, IsInitial: true,
				Text: "Hi! What would you like to know about our print shop?"},
			{ID: "about-services", FlowID: flow.ID, Kind: domain.NodeMessage,
				Text: "We print business cards, flyers, banners and posters."},
			{ID: "about-contact", FlowID: flow.ID, Kind: domain.NodeMessage,
				Text: "Reach us at hello@pressline.example or drop by the shop."},
			{ID: "about-end", FlowID: flow.ID, Kind: domain.NodeEnd,
				Text: "Thanks for chatting with us!"},
		},
		Options: []domain.Option{
			// Declared out of position order on purpose.
			{ID: "about-opt-goodbye", FlowID: flow.ID, FromNodeID: "about-start", ToNodeID: "about-end", Label: "Goodbye", Position: 3},
			{ID: "about-opt-services", FlowID: flow.ID, FromNodeID: "about-start", ToNodeID: "about-services", Label: "Services", Position: 1},
			{ID: "about-opt-contact", FlowID: flow.ID, FromNodeID: "about-start", ToNodeID: "about-contact", Label: "Contact", Position: 2},
			{ID: "about-opt-services-back", FlowID: flow.ID, FromNodeID: "about-services", ToNodeID: "about-start", Label: "Back", Position: 1},
			{ID: "about-opt-services-bye", FlowID: flow.ID, FromNodeID: "about-services", ToNodeID: "about-end", Label: "Goodbye", Position: 2},
			{ID: "about-opt-contact-back", FlowID: flow.ID, FromNodeID: "about-contact", ToNodeID: "about-start", Label: "Back", Position: 1},
		},
	}
}

// HoursFlow is a store-backed flow without a terminal node.
func HoursFlow() Graph {
	flow := domain.Flow{ID: "hours", Title: "Opening Hours"}
	return Graph{
		Flow: flow,
		Nodes: []domain.Node{
			{ID: "hours-start", FlowID: flow.ID, Kind: domain.NodeStart, IsInitial: true,
				Text: "Are you planning to visit on a weekday?"},
			{ID: "hours-weekday", FlowID: flow.ID, Kind: domain.NodeMessage,
				Text: "We are open 9am to 6pm on weekdays."},
			{ID: "hours-weekend", FlowID: flow.ID, Kind: domain.NodeMessage,
				Text: "On weekends we open 10am to 2pm."},
		},
		Options: []domain.Option{
			{ID: "hours-opt-yes", FlowID: flow.ID, FromNodeID: "hours-start", ToNodeID: "hours-weekday", Label: "Yes", Position: 1},
			{ID: "hours-opt-no", FlowID: flow.ID, FromNodeID: "hours-start", ToNodeID: "hours-weekend", Label: "No", Position: 2},
		},
	}
}

package domain

import (
	"strings"
	"unicode"
)

// Option is a labelled, directed edge between two nodes of the same flow.
type Option struct {
	ID         string `json:"id" yaml:"id"`
	FlowID     string `json:"flow_id" yaml:"flow_id,omitempty"`
	FromNodeID string `json:"from_node_id" yaml:"from"`
	ToNodeID   string `json:"to_node_id" yaml:"to"`
	Label      string `json:"label" yaml:"label"`

	// Position orders presentation only. It never breaks ties when matching.
	Position int `json:"position" yaml:"position"`
}

// Matches reports whether the user input selects this option.
// Comparison is case-insensitive on the trimmed input.
func (o Option) Matches(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), strings.TrimSpace(o.Label))
}

// FoldLabel returns the key under which Matches treats labels as equal.
// Two labels share a key exactly when strings.EqualFold accepts them.
func FoldLabel(label string) string {
	return strings.Map(foldRune, strings.TrimSpace(label))
}

// foldRune picks the smallest rune of r's case-folding orbit.
func foldRune(r rune) rune {
	least := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < least {
			least = f
		}
	}
	return least
}

// MatchOption returns the first option whose label matches input.
func MatchOption(options []Option, input string) (Option, bool) {
	for _, opt := range options {
		if opt.Matches(input) {
			return opt, true
		}
	}
	return Option{}, false
}

// QuickReply is a UI shortcut. Sending its Value should select the option
// whose label it mirrors.
type QuickReply struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// EndChatLabel is the synthetic quick reply offered when a node has no
// outgoing options.
const EndChatLabel = "End Chat"

// QuickRepliesFor maps options 1:1 onto quick replies, preserving order.
// A node without options yields the single synthetic "End Chat" reply.
func QuickRepliesFor(options []Option) []QuickReply {
	if len(options) == 0 {
		return []QuickReply{{Label: EndChatLabel, Value: EndChatLabel}}
	}
	return QuickRepliesFromLabels(labels(options))
}

// QuickRepliesFromLabels maps plain labels onto quick replies.
func QuickRepliesFromLabels(labels []string) []QuickReply {
	replies := make([]QuickReply, 0, len(labels))
	for _, l := range labels {
		replies = append(replies, QuickReply{Label: l, Value: l})
	}
	return replies
}

func labels(options []Option) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.Label
	}
	return out
}

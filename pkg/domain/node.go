package domain

// NodeKind classifies a node's role in the dialog graph.
type NodeKind string

const (
	// NodeStart is the entry point of a flow.
	NodeStart NodeKind = "start"
	// NodeMessage is an intermediate step that displays text and offers options.
	NodeMessage NodeKind = "message"
	// NodeEnd is the terminal node; its text is used as the closing message.
	NodeEnd NodeKind = "end"
)

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeStart, NodeMessage, NodeEnd:
		return true
	}
	return false
}

// Flow is a named dialog graph definition. It is authored externally and never
// mutated by the engine.
type Flow struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Node represents one point in a flow.
type Node struct {
	ID     string   `json:"id" yaml:"id"`
	FlowID string   `json:"flow_id" yaml:"flow_id,omitempty"`
	Kind   NodeKind `json:"kind" yaml:"kind"`
	Text   string   `json:"text" yaml:"text"`

	// IsInitial marks the node a new session is attached to.
	// At most one node per flow carries it.
	IsInitial bool `json:"is_initial" yaml:"initial,omitempty"`
}

package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/pressline/pkg/domain"
)

// Overlay contains session state to highlight on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of a flow. Node shapes follow
// the node kind:
//   - start: ((circle))
//   - end: ([stadium])
//   - message: [rectangle]
//
// Option labels annotate the edges. Overlay styles are applied when given.
func GenerateMermaid(nodes []domain.Node, options []domain.Option, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Kind {
		case domain.NodeStart:
			opener, closer = "((", "))"
		case domain.NodeEnd:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, node.ID, closer)
	}

	for _, opt := range options {
		label := strings.ReplaceAll(opt.Label, "\"", "'")
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n",
			sanitizeMermaidID(opt.FromNodeID), label, sanitizeMermaidID(opt.ToNodeID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !visited[safeID] {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// OverlayFromMessages marks the nodes a session's bot messages came from.
func OverlayFromMessages(msgs []domain.Message, current string) *Overlay {
	o := &Overlay{CurrentNode: current}
	for _, m := range msgs {
		if m.Role == domain.RoleAssistant && m.NodeID != "" {
			o.VisitedNodes = append(o.VisitedNodes, m.NodeID)
		}
	}
	return o
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/pressline/internal/presentation/graph"
	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid_Shapes(t *testing.T) {
	g := tests.AboutFlow()
	out := graph.GenerateMermaid(g.Nodes, g.Options, nil)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `about_start(("about-start"))`)
	assert.Contains(t, out, `about_services["about-services"]`)
	assert.Contains(t, out, `about_end(["about-end"])`)
	assert.Contains(t, out, `about_start -- "Services" --> about_services`)
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_EscapesLabels(t *testing.T) {
	nodes := []domain.Node{{ID: "a", Kind: domain.NodeStart}, {ID: "b", Kind: domain.NodeMessage}}
	opts := []domain.Option{{FromNodeID: "a", ToNodeID: "b", Label: `Say "hi"`}}
	out := graph.GenerateMermaid(nodes, opts, nil)
	assert.Contains(t, out, `a -- "Say 'hi'" --> b`)
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	g := tests.AboutFlow()
	msgs := []domain.Message{
		{Role: domain.RoleAssistant, NodeID: "about-start"},
		{Role: domain.RoleUser, Text: "Services"},
		{Role: domain.RoleAssistant, NodeID: "about-services"},
		{Role: domain.RoleUser, Text: "Back"},
		{Role: domain.RoleAssistant, NodeID: "about-start"},
	}
	out := graph.GenerateMermaid(g.Nodes, g.Options, graph.OverlayFromMessages(msgs, "about-start"))

	assert.Equal(t, 1, strings.Count(out, "class about_start visited;"))
	assert.Contains(t, out, "class about_services visited;")
	assert.Contains(t, out, "class about_start current;")
	assert.NotContains(t, out, "class about_contact")
}

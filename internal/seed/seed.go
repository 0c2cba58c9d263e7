// Package seed loads authored store-backed flows from YAML and writes them
// into a dialog store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/ports"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultSeed []byte

// Graph is one authored flow.
type Graph struct {
	domain.Flow `yaml:",inline"`
	Nodes       []domain.Node   `yaml:"nodes"`
	Options     []domain.Option `yaml:"options"`
}

type document struct {
	Flows []Graph `yaml:"flows"`
}

// Parse decodes a seed document. Node and option flow ids default to the
// enclosing flow, and every graph is validated.
func Parse(r io.Reader) ([]Graph, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}

	for i := range doc.Flows {
		g := &doc.Flows[i]
		for j := range g.Nodes {
			if g.Nodes[j].FlowID == "" {
				g.Nodes[j].FlowID = g.ID
			}
		}
		for j := range g.Options {
			if g.Options[j].FlowID == "" {
				g.Options[j].FlowID = g.ID
			}
		}
		if err := domain.ValidateGraph(g.Flow, g.Nodes, g.Options); err != nil {
			return nil, fmt.Errorf("seed: flow %q: %w", g.ID, err)
		}
	}
	return doc.Flows, nil
}

// Load reads a seed file. An empty path selects the built-in flows.
func Load(path string) ([]Graph, error) {
	if path == "" {
		return Parse(bytes.NewReader(defaultSeed))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Apply writes every graph through author, replacing existing definitions.
func Apply(ctx context.Context, author ports.FlowAuthor, graphs []Graph, logger *slog.Logger) error {
	for _, g := range graphs {
		if err := author.SaveFlow(ctx, g.Flow, g.Nodes, g.Options); err != nil {
			return fmt.Errorf("seed: save %q: %w", g.ID, err)
		}
		logger.Info("flow seeded", "flow_id", g.ID, "nodes", len(g.Nodes), "options", len(g.Options))
	}
	return nil
}

// Find returns the graph of flowID.
func Find(graphs []Graph, flowID string) (Graph, bool) {
	for _, g := range graphs {
		if g.ID == flowID {
			return g, true
		}
	}
	return Graph{}, false
}

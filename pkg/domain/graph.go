package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidFlow is returned when an authored graph breaks a structural rule.
var ErrInvalidFlow = errors.New("invalid flow")

// ValidateGraph checks the structural invariants of an authored flow:
// exactly one initial node, known node kinds, options connecting nodes of the
// same flow, and no two options from one node whose labels collide
// case-insensitively.
func ValidateGraph(flow Flow, nodes []Node, options []Option) error {
	if flow.ID == "" {
		return fmt.Errorf("%w: flow id is required", ErrInvalidFlow)
	}

	byID := make(map[string]Node, len(nodes))
	initial := 0
	for _, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node without id in flow %q", ErrInvalidFlow, flow.ID)
		}
		if n.FlowID != "" && n.FlowID != flow.ID {
			return fmt.Errorf("%w: node %q belongs to flow %q", ErrInvalidFlow, n.ID, n.FlowID)
		}
		if !n.Kind.Valid() {
			return fmt.Errorf("%w: node %q has unknown kind %q", ErrInvalidFlow, n.ID, n.Kind)
		}
		if _, dup := byID[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node %q", ErrInvalidFlow, n.ID)
		}
		if n.IsInitial {
			initial++
		}
		byID[n.ID] = n
	}
	if initial != 1 {
		return fmt.Errorf("%w: flow %q has %d initial nodes, want 1", ErrInvalidFlow, flow.ID, initial)
	}

	seen := make(map[string]map[string]bool)
	for _, o := range options {
		if _, ok := byID[o.FromNodeID]; !ok {
			return fmt.Errorf("%w: option %q starts at unknown node %q", ErrInvalidFlow, o.ID, o.FromNodeID)
		}
		if _, ok := byID[o.ToNodeID]; !ok {
			return fmt.Errorf("%w: option %q points to unknown node %q", ErrInvalidFlow, o.ID, o.ToNodeID)
		}
		key := FoldLabel(o.Label)
		if key == "" {
			return fmt.Errorf("%w: option %q has an empty label", ErrInvalidFlow, o.ID)
		}
		if seen[o.FromNodeID] == nil {
			seen[o.FromNodeID] = make(map[string]bool)
		}
		if seen[o.FromNodeID][key] {
			return fmt.Errorf("%w: ambiguous label %q on node %q", ErrInvalidFlow, o.Label, o.FromNodeID)
		}
		seen[o.FromNodeID][key] = true
	}
	return nil
}

package driver

import (
	"sort"
	"sync"
)

// Registry maps flow identifiers to scripted flows.
type Registry struct {
	mu    sync.RWMutex
	flows map[string]ScriptedFlow
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		flows: make(map[string]ScriptedFlow),
	}
}

// Register adds a flow to the registry.
// If a flow with the same id exists, it is overwritten.
func (r *Registry) Register(id string, flow ScriptedFlow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.flows == nil {
		r.flows = make(map[string]ScriptedFlow)
	}
	r.flows[id] = flow
}

// Lookup returns the flow registered under id.
func (r *Registry) Lookup(id string) (ScriptedFlow, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	flow, ok := r.flows[id]
	return flow, ok
}

// Names returns the registered flow ids in sorted order. A nil registry has
// none.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.flows))
	for id := range r.flows {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

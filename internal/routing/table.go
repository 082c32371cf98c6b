package routing

import (
	"fmt"
	"sync"

	"github.com/aretw0/midirelay/pkg/domain"
)

// Table records input to output assignments.
// Writes happen during allocation; reads may come from the status server.
type Table struct {
	mu      sync.RWMutex
	routes  []domain.Route
	inputs  map[string]struct{}
	outputs map[string]string
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{
		inputs:  make(map[string]struct{}),
		outputs: make(map[string]string),
	}
}

// Add records a route. It rejects an input that is already routed or an
// output that another route owns.
func (t *Table) Add(r domain.Route) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.inputs[r.Input.Name]; ok {
		return fmt.Errorf("input %q already routed", r.Input.Name)
	}
	for _, out := range r.Outputs {
		if owner, ok := t.outputs[out.Name]; ok {
			return fmt.Errorf("%w: %q is routed from %q", domain.ErrClaimed, out.Name, owner)
		}
	}

	t.inputs[r.Input.Name] = struct{}{}
	for _, out := range r.Outputs {
		t.outputs[out.Name] = r.Input.Name
	}
	t.routes = append(t.routes, r)
	return nil
}

// Routes returns the recorded routes in allocation order.
func (t *Table) Routes() []domain.Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.Route(nil), t.routes...)
}

// OutputOwner returns the input routed to output.
func (t *Table) OutputOwner(output string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	in, ok := t.outputs[output]
	return in, ok
}

// Len returns the number of routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

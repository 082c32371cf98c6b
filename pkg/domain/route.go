package domain

import "strings"

// Route assigns an input endpoint to its output endpoints.
// Outputs keep the order they were selected in (primary first in dual mode).
type Route struct {
	Input   Endpoint   `json:"input"`
	Outputs []Endpoint `json:"outputs"`
}

// OutputNames returns the names of the route's outputs in order.
func (r Route) OutputNames() []string {
	names := make([]string, len(r.Outputs))
	for i, o := range r.Outputs {
		names[i] = o.Name
	}
	return names
}

func (r Route) String() string {
	return r.Input.Name + " -> " + strings.Join(r.OutputNames(), " & ")
}

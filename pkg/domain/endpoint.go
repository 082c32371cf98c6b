package domain

import "fmt"

// Direction tells whether an endpoint produces or consumes events.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Endpoint is a snapshot of one port reported by the transport.
// Index is only meaningful for the discovery call that produced it.
type Endpoint struct {
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s[%d] %q", e.Direction, e.Index, e.Name)
}

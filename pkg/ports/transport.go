package ports

import (
	"time"

	"github.com/aretw0/midirelay/pkg/domain"
)

// EventFunc consumes one inbound event: the raw message bytes and the time
// elapsed since the previous event on the same input.
// It is invoked on a transport-owned goroutine and must not retain msg.
type EventFunc func(msg []byte, delta time.Duration)

// Transport is the MIDI subsystem as seen by the router.
type Transport interface {
	// Inputs lists input endpoints in enumeration order.
	Inputs() ([]domain.Endpoint, error)
	// Outputs lists output endpoints in enumeration order.
	Outputs() ([]domain.Endpoint, error)
	// OpenInput opens the input with the given discovery index.
	OpenInput(index int) (InputPort, error)
	// OpenOutput opens the output with the given discovery index.
	OpenOutput(index int) (OutputPort, error)
}

// InputPort is an opened input endpoint.
type InputPort interface {
	Name() string
	// Listen registers the single consumer for this input. The suppression
	// filter is applied by the transport before fn is called.
	// A second call returns domain.ErrAlreadyListening.
	Listen(fn EventFunc, filter domain.Suppression) error
	// Close stops delivery and releases the port. Safe to call more than once.
	Close() error
}

// OutputPort is an opened output endpoint.
type OutputPort interface {
	Name() string
	// Send writes msg synchronously. Returns domain.ErrPortClosed after Close.
	Send(msg []byte) error
	// Close releases the port. Safe to call more than once.
	Close() error
}

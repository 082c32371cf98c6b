package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRouteOpened    EventType = "route_opened"
	EventRouteAbandoned EventType = "route_abandoned"
	EventForward        EventType = "forward"
	EventForwardError   EventType = "forward_error"
	EventPortClosed     EventType = "port_closed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// RouteEvent reports a mapping decision made during startup.
type RouteEvent struct {
	EventBase
	Route  Route  `json:"route"`
	Reason string `json:"reason,omitempty"`
}

// ForwardEvent reports one message sent (or not) from an input to an output.
type ForwardEvent struct {
	EventBase
	Input  string `json:"input"`
	Output string `json:"output"`
	Bytes  int    `json:"bytes"`
	Err    error  `json:"-"`
}

// PortEvent reports a handle closed during shutdown.
type PortEvent struct {
	EventBase
	Port      string    `json:"port"`
	Direction Direction `json:"direction"`
	Err       error     `json:"-"`
}

// LifecycleHooks defines callbacks for router observability.
// OnForward and OnForwardError run inside transport callbacks and must not block.
type LifecycleHooks struct {
	OnRouteOpened    func(context.Context, *RouteEvent)
	OnRouteAbandoned func(context.Context, *RouteEvent)
	OnForward        func(context.Context, *ForwardEvent)
	OnForwardError   func(context.Context, *ForwardEvent)
	OnPortClosed     func(context.Context, *PortEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRouteOpened:    chain(h.OnRouteOpened, other.OnRouteOpened),
		OnRouteAbandoned: chain(h.OnRouteAbandoned, other.OnRouteAbandoned),
		OnForward:        chain(h.OnForward, other.OnForward),
		OnForwardError:   chain(h.OnForwardError, other.OnForwardError),
		OnPortClosed:     chain(h.OnPortClosed, other.OnPortClosed),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

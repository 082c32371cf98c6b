// Package relay forwards events from one input to its route's outputs.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/internal/routing"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/aretw0/midirelay/pkg/ports"
)

// Target is one output of the relay. Lock guards every Send on Port.
type Target struct {
	Name string
	Port ports.OutputPort
	Lock *sync.Mutex
}

// Relay is the consumer registered on one input. Handle may be called
// concurrently by the transport; sends to each output are serialized by the
// output's lock and happen in the target order fixed at construction.
type Relay struct {
	ctx     context.Context
	input   string
	targets []Target
	hooks   domain.LifecycleHooks
	logger  *slog.Logger

	// gate is held shared by every Handle in flight and exclusively by Stop,
	// so Stop returns only after in-flight sends finish.
	gate    sync.RWMutex
	stopped bool

	clock     atomic.Int64
	forwarded atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger configures the logger used for forwarding errors.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers forward hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Relay) {
		r.hooks = hooks
	}
}

// WithContext sets the context passed to hooks.
func WithContext(ctx context.Context) Option {
	return func(r *Relay) {
		r.ctx = ctx
	}
}

// New creates a relay for input. Its logical clock starts at the current time.
func New(input string, targets []Target, opts ...Option) *Relay {
	r := &Relay{
		ctx:     context.Background(),
		input:   input,
		targets: append([]Target(nil), targets...),
		logger:  logging.NewNop(),
	}
	r.clock.Store(time.Now().UnixNano())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ForSession builds the relay of an allocated session.
func ForSession(s *routing.Session, opts ...Option) *Relay {
	targets := make([]Target, len(s.Outputs))
	for i, out := range s.Outputs {
		targets[i] = Target{Name: out.Endpoint.Name, Port: out.Port, Lock: out.Lock}
	}
	return New(s.Route.Input.Name, targets, opts...)
}

// Handle forwards msg unchanged to every target. It never panics and never
// returns an error: failures are logged and reported through hooks.
func (r *Relay) Handle(msg []byte, delta time.Duration) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Callback error", "input", r.input, "error", fmt.Errorf("panic: %v", p))
		}
	}()

	r.gate.RLock()
	defer r.gate.RUnlock()
	if r.stopped {
		r.dropped.Add(1)
		return
	}

	r.clock.Add(int64(delta))
	for _, t := range r.targets {
		r.forward(t, msg)
	}
}

func (r *Relay) forward(t Target, msg []byte) {
	err := send(t, msg)
	ev := &domain.ForwardEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventForward},
		Input:     r.input,
		Output:    t.Name,
		Bytes:     len(msg),
	}
	if err != nil {
		r.failed.Add(1)
		r.logger.Error("Callback error", "input", r.input, "output", t.Name, "error", err)
		if r.hooks.OnForwardError != nil {
			ev.Type = domain.EventForwardError
			ev.Err = err
			r.hooks.OnForwardError(r.ctx, ev)
		}
		return
	}
	r.forwarded.Add(1)
	if r.hooks.OnForward != nil {
		r.hooks.OnForward(r.ctx, ev)
	}
}

func send(t Target, msg []byte) (err error) {
	t.Lock.Lock()
	defer t.Lock.Unlock()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic sending to %q: %v", t.Name, p)
		}
	}()
	return t.Port.Send(msg)
}

// Stop waits for in-flight Handle calls to finish and makes later calls
// drop their event. Call it before closing the route's handles.
func (r *Relay) Stop() {
	r.gate.Lock()
	defer r.gate.Unlock()
	r.stopped = true
}

// Clock returns the logical timestamp: registration time plus the sum of
// every delta seen. It is diagnostic only.
func (r *Relay) Clock() time.Time {
	return time.Unix(0, r.clock.Load())
}

// Stats returns the per-target send counters and the events dropped after Stop.
func (r *Relay) Stats() domain.RouteStats {
	return domain.RouteStats{
		Forwarded: r.forwarded.Load(),
		Failed:    r.failed.Load(),
		Dropped:   r.dropped.Load(),
	}
}

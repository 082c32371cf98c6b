package routing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/pkg/adapters/memory"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/aretw0/midirelay/pkg/ports"
)

// Allocator assigns matched inputs to free outputs and opens them.
// It owns the claim registry view, the route table and one lock per claimed
// output index. An Allocator is not safe for concurrent use.
type Allocator struct {
	transport ports.Transport
	fanout    Fanout
	claims    ports.ClaimRegistry
	table     *Table
	locks     map[int]*sync.Mutex
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option configures the Allocator.
type Option func(*Allocator)

// WithClaims replaces the default in-memory claim registry.
func WithClaims(claims ports.ClaimRegistry) Option {
	return func(a *Allocator) {
		a.claims = claims
	}
}

// WithLogger configures a logger for mapping decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		a.logger = logger
	}
}

// WithLifecycleHooks registers route opened/abandoned hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Allocator) {
		a.hooks = hooks
	}
}

// NewAllocator creates an allocator for the given transport and fanout.
func NewAllocator(transport ports.Transport, fanout Fanout, opts ...Option) *Allocator {
	a := &Allocator{
		transport: transport,
		fanout:    fanout,
		claims:    memory.NewClaims(),
		table:     NewTable(),
		locks:     make(map[int]*sync.Mutex),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Table returns the route table filled by Allocate.
func (a *Allocator) Table() *Table {
	return a.table
}

// Claims returns the claim registry in use.
func (a *Allocator) Claims() ports.ClaimRegistry {
	return a.claims
}

// LockFor returns the lock of the output at index, or nil if that output
// was never claimed.
func (a *Allocator) LockFor(index int) *sync.Mutex {
	return a.locks[index]
}

// Allocate routes every input in order. Capacity is checked before anything
// is opened. Per-route open failures are logged and skipped; it fails with
// domain.ErrNoRoutes if no route could be opened.
func (a *Allocator) Allocate(ctx context.Context, inputs, outputs []domain.Endpoint) ([]*Session, error) {
	if err := CheckCapacity(inputs, outputs, a.fanout.Arity()); err != nil {
		return nil, err
	}

	var sessions []*Session
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			a.closeAll(context.WithoutCancel(ctx), sessions)
			return nil, err
		}
		if sess := a.allocateInput(ctx, in, outputs); sess != nil {
			sessions = append(sessions, sess)
		}
	}

	if len(sessions) == 0 {
		return nil, domain.ErrNoRoutes
	}
	return sessions, nil
}

func (a *Allocator) allocateInput(ctx context.Context, in domain.Endpoint, outputs []domain.Endpoint) *Session {
	failed := make(map[int]bool)
	for {
		chosen, err := a.selectTargets(ctx, outputs, failed)
		if err != nil {
			a.abandon(ctx, domain.Route{Input: in}, err.Error())
			return nil
		}
		if chosen == nil {
			a.abandon(ctx, domain.Route{Input: in}, "no free output for every target")
			return nil
		}

		route := domain.Route{Input: in, Outputs: chosen}
		a.logger.Debug("Attempting to map", "route", route.String())

		sess, err := a.open(ctx, route)
		if err == nil {
			a.logger.Info("Mapped", "route", route.String())
			if a.hooks.OnRouteOpened != nil {
				a.hooks.OnRouteOpened(ctx, &domain.RouteEvent{
					EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRouteOpened},
					Route:     route,
				})
			}
			return sess
		}

		a.logger.Warn("Error opening route", "route", route.String(), "error", err)
		if !a.fanout.Retry {
			a.abandon(ctx, route, err.Error())
			return nil
		}
		for _, ep := range chosen {
			failed[ep.Index] = true
		}
	}
}

// selectTargets scans outputs once in enumeration order and fills each
// target slot with the first unclaimed output it matches. An output fills at
// most one slot, the earliest one it matches. It returns nil if any slot
// stays empty.
func (a *Allocator) selectTargets(ctx context.Context, outputs []domain.Endpoint, skip map[int]bool) ([]domain.Endpoint, error) {
	chosen := make([]domain.Endpoint, len(a.fanout.Targets))
	filled := make([]bool, len(a.fanout.Targets))
	remaining := len(chosen)

	for _, out := range outputs {
		if remaining == 0 {
			break
		}
		if skip[out.Index] {
			continue
		}
		claimed, err := a.claims.IsClaimed(ctx, out.Name)
		if err != nil {
			return nil, fmt.Errorf("checking claim on %q: %w", out.Name, err)
		}
		if claimed {
			continue
		}
		for slot, target := range a.fanout.Targets {
			if filled[slot] || !target.Match(out.Name) {
				continue
			}
			chosen[slot] = out
			filled[slot] = true
			remaining--
			break
		}
	}

	if remaining > 0 {
		return nil, nil
	}
	return chosen, nil
}

// open opens the input and every output of route, then claims the outputs.
// On any failure everything opened for the route is closed and nothing stays
// claimed.
func (a *Allocator) open(ctx context.Context, route domain.Route) (*Session, error) {
	in, err := a.transport.OpenInput(route.Input.Index)
	if err != nil {
		return nil, fmt.Errorf("%w: input %q: %w", domain.ErrOpen, route.Input.Name, err)
	}

	var outs []OutputTarget
	release := func() {
		for _, e := range closeHandles(route.Input, in, outs, a.logClose) {
			a.logger.Warn("Error releasing port", "route", route.String(), "error", e)
		}
	}

	for _, ep := range route.Outputs {
		out, err := a.transport.OpenOutput(ep.Index)
		if err != nil {
			release()
			return nil, fmt.Errorf("%w: output %q: %w", domain.ErrOpen, ep.Name, err)
		}
		outs = append(outs, OutputTarget{Endpoint: ep, Port: out})
	}

	for i, target := range outs {
		if err := a.claims.Claim(ctx, target.Endpoint.Name); err != nil {
			for _, prev := range outs[:i] {
				a.release(ctx, prev.Endpoint.Name)
			}
			release()
			return nil, err
		}
	}

	if err := a.table.Add(route); err != nil {
		for _, target := range outs {
			a.release(ctx, target.Endpoint.Name)
		}
		release()
		return nil, err
	}

	for i := range outs {
		outs[i].Lock = a.lockFor(outs[i].Endpoint.Index)
	}
	return &Session{Route: route, Input: in, Outputs: outs}, nil
}

func (a *Allocator) lockFor(index int) *sync.Mutex {
	mu, ok := a.locks[index]
	if !ok {
		mu = &sync.Mutex{}
		a.locks[index] = mu
	}
	return mu
}

func (a *Allocator) abandon(ctx context.Context, route domain.Route, reason string) {
	a.logger.Warn("Skipping input", "input", route.Input.Name, "reason", reason)
	if a.hooks.OnRouteAbandoned != nil {
		a.hooks.OnRouteAbandoned(ctx, &domain.RouteEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRouteAbandoned},
			Route:     route,
			Reason:    reason,
		})
	}
}

func (a *Allocator) logClose(ep domain.Endpoint, err error) {
	if err != nil {
		a.logger.Warn("Error closing port", "port", ep.Name, "error", err)
		return
	}
	a.logger.Debug("Released port", "port", ep.Name)
}

func (a *Allocator) release(ctx context.Context, output string) {
	if err := a.claims.Release(ctx, output); err != nil {
		a.logger.Warn("Error releasing claim", "output", output, "error", err)
	}
}

// closeAll tears down routes already reported as opened, so each closed
// handle is reported through OnPortClosed.
func (a *Allocator) closeAll(ctx context.Context, sessions []*Session) {
	for _, s := range sessions {
		_ = s.Close(func(ep domain.Endpoint, err error) {
			a.logClose(ep, err)
			if a.hooks.OnPortClosed != nil {
				a.hooks.OnPortClosed(ctx, &domain.PortEvent{
					EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPortClosed},
					Port:      ep.Name,
					Direction: ep.Direction,
					Err:       err,
				})
			}
		})
		for _, out := range s.Outputs {
			a.release(ctx, out.Endpoint.Name)
		}
	}
}

// Preview computes the routes Allocate would create if every open succeeded,
// without opening or claiming anything. Inputs left without a route are
// returned separately.
func (a *Allocator) Preview(ctx context.Context, inputs, outputs []domain.Endpoint) (routes []domain.Route, unrouted []domain.Endpoint, err error) {
	if err := CheckCapacity(inputs, outputs, a.fanout.Arity()); err != nil {
		return nil, nil, err
	}
	taken := make(map[int]bool)
	for _, in := range inputs {
		chosen, err := a.selectTargets(ctx, outputs, taken)
		if err != nil {
			return nil, nil, err
		}
		if chosen == nil {
			unrouted = append(unrouted, in)
			continue
		}
		for _, ep := range chosen {
			taken[ep.Index] = true
		}
		routes = append(routes, domain.Route{Input: in, Outputs: chosen})
	}
	return routes, unrouted, nil
}

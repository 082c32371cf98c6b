package midirelay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/internal/relay"
	"github.com/aretw0/midirelay/internal/routing"
	"github.com/aretw0/midirelay/pkg/adapters/memory"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/aretw0/midirelay/pkg/ports"
)

// DefaultPollInterval bounds how long Wait takes to notice the shutdown signal.
const DefaultPollInterval = 250 * time.Millisecond

// Matching selects which endpoints are routed and how.
type Matching struct {
	InputPattern  string
	OutputPattern string
	Fanout        domain.FanoutMode
	// Primary and Secondary are the output name tokens of dual fanout.
	Primary   string
	Secondary string
}

func (m Matching) fanout() routing.Fanout {
	return routing.NewFanout(m.Fanout, m.Primary, m.Secondary)
}

// Router is the lifecycle manager: it opens routes, runs their relays and
// tears everything down once.
type Router struct {
	transport    ports.Transport
	matching     Matching
	claims       ports.ClaimRegistry
	suppression  domain.Suppression
	pollInterval time.Duration
	hooks        domain.LifecycleHooks
	logger       *slog.Logger

	mu       sync.RWMutex
	state    domain.RouterState
	sessions []*routing.Session
	relays   []*relay.Relay

	startOnce    sync.Once
	shutdownOnce sync.Once
	shutdownErr  error
}

// Option defines a functional option for configuring the Router.
type Option func(*Router)

// WithLogger configures the progress logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Router) {
		r.hooks = hooks
	}
}

// WithClaims shares output claims through registry (e.g. Redis) instead of
// keeping them in process memory.
func WithClaims(registry ports.ClaimRegistry) Option {
	return func(r *Router) {
		r.claims = registry
	}
}

// WithSuppression sets the message classes dropped at each input.
func WithSuppression(s domain.Suppression) Option {
	return func(r *Router) {
		r.suppression = s
	}
}

// WithPollInterval sets how often Wait checks the shutdown signal.
// Non-positive values keep the default.
func WithPollInterval(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// New creates a Router. Nothing is opened until Start.
func New(transport ports.Transport, matching Matching, opts ...Option) *Router {
	r := &Router{
		transport:    transport,
		matching:     matching,
		claims:       memory.NewClaims(),
		suppression:  domain.DefaultSuppression(),
		pollInterval: DefaultPollInterval,
		logger:       logging.NewNop(),
		state:        domain.StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle phase.
func (r *Router) State() domain.RouterState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Router) setState(s domain.RouterState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Start discovers endpoints, allocates routes and installs one relay per
// route. It runs at most once; a second call returns an error.
func (r *Router) Start(ctx context.Context) error {
	err := errors.New("router already started")
	r.startOnce.Do(func() {
		err = r.start(ctx)
	})
	return err
}

func (r *Router) start(ctx context.Context) error {
	r.setState(domain.StateStarting)

	ins, outs, err := routing.Discover(r.transport)
	if err != nil {
		return r.fail(err)
	}
	r.logger.Info("MIDI ins", "ports", endpointNames(ins))
	r.logger.Info("MIDI outs", "ports", endpointNames(outs))

	matchedIns := routing.Filter(ins, r.matching.InputPattern)
	matchedOuts := routing.Filter(outs, r.matching.OutputPattern)
	r.logger.Debug("Matched ports",
		"input_pattern", r.matching.InputPattern, "inputs", endpointNames(matchedIns),
		"output_pattern", r.matching.OutputPattern, "outputs", endpointNames(matchedOuts),
	)

	allocator := routing.NewAllocator(r.transport, r.matching.fanout(),
		routing.WithClaims(r.claims),
		routing.WithLogger(r.logger),
		routing.WithLifecycleHooks(r.hooks),
	)
	sessions, err := allocator.Allocate(ctx, matchedIns, matchedOuts)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientOutputs) {
			err = fmt.Errorf("%w (input %q, output %q, %s fanout)", err,
				r.matching.InputPattern, r.matching.OutputPattern, r.matching.Fanout)
		}
		return r.fail(err)
	}

	var (
		installed []*routing.Session
		relays    []*relay.Relay
	)
	for _, s := range sessions {
		rl := relay.ForSession(s,
			relay.WithContext(ctx),
			relay.WithLogger(r.logger),
			relay.WithLifecycleHooks(r.hooks),
		)
		if err := s.Input.Listen(rl.Handle, r.suppression); err != nil {
			r.logger.Warn("Error installing relay", "route", s.Route.String(), "error", err)
			_ = r.closeSession(ctx, s)
			continue
		}
		installed = append(installed, s)
		relays = append(relays, rl)
	}

	r.mu.Lock()
	r.sessions = installed
	r.relays = relays
	r.mu.Unlock()

	if len(installed) == 0 {
		return r.fail(domain.ErrNoRoutes)
	}

	r.setState(domain.StateRunning)
	r.logger.Info("Routing", "routes", len(installed))
	return nil
}

func (r *Router) fail(err error) error {
	r.setState(domain.StateFailed)
	r.logger.Error("Startup failed", "error", err)
	return err
}

// Wait blocks until sig is set, checking it every poll interval. Canceling
// ctx counts as a termination request and sets sig.
func (r *Router) Wait(ctx context.Context, sig *domain.ShutdownSignal) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for !sig.Triggered() {
		select {
		case <-ctx.Done():
			sig.Trigger()
		case <-ticker.C:
		}
	}
}

// Shutdown stops every relay and closes every opened handle. Only the first
// call does the work; it returns the joined close errors, which callers
// should report but not treat as fatal.
func (r *Router) Shutdown() error {
	r.shutdownOnce.Do(func() {
		r.shutdownErr = r.shutdown()
	})
	return r.shutdownErr
}

func (r *Router) shutdown() error {
	r.mu.Lock()
	failed := r.state == domain.StateFailed
	if !failed {
		r.state = domain.StateShuttingDown
	}
	sessions, relays := r.sessions, r.relays
	r.mu.Unlock()

	for _, rl := range relays {
		rl.Stop()
	}

	ctx := context.Background()
	var errs []error
	for _, s := range sessions {
		r.logger.Info("Closing route", "route", s.Route.String())
		if err := r.closeSession(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}

	if !failed {
		r.setState(domain.StateStopped)
	}
	r.logger.Info("Exiting...")
	return errors.Join(errs...)
}

func (r *Router) closeSession(ctx context.Context, s *routing.Session) error {
	err := s.Close(func(ep domain.Endpoint, err error) {
		if err != nil {
			r.logger.Warn("Error closing port", "port", ep.Name, "direction", ep.Direction, "error", err)
		} else {
			r.logger.Info("Closed port", "port", ep.Name, "direction", ep.Direction)
		}
		if r.hooks.OnPortClosed != nil {
			r.hooks.OnPortClosed(ctx, &domain.PortEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPortClosed},
				Port:      ep.Name,
				Direction: ep.Direction,
				Err:       err,
			})
		}
	})
	for _, out := range s.Outputs {
		if rerr := r.claims.Release(ctx, out.Endpoint.Name); rerr != nil {
			r.logger.Warn("Error releasing claim", "output", out.Endpoint.Name, "error", rerr)
		}
	}
	return err
}

// Routes returns the routes that are running, in allocation order.
func (r *Router) Routes() []domain.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	routes := make([]domain.Route, len(r.sessions))
	for i, s := range r.sessions {
		routes[i] = s.Route
	}
	return routes
}

// Status returns each running route with its relay counters.
func (r *Router) Status() []domain.RouteStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status := make([]domain.RouteStatus, len(r.sessions))
	for i, s := range r.sessions {
		status[i] = domain.RouteStatus{Route: s.Route, Stats: r.relays[i].Stats()}
	}
	return status
}

// Plan reports the routes Start would create if every port opened, and the
// matched inputs that would be left without a route. Nothing is opened.
func Plan(ctx context.Context, transport ports.Transport, matching Matching) (routes []domain.Route, unrouted []domain.Endpoint, err error) {
	ins, outs, err := routing.Discover(transport)
	if err != nil {
		return nil, nil, err
	}
	allocator := routing.NewAllocator(transport, matching.fanout())
	return allocator.Preview(ctx,
		routing.Filter(ins, matching.InputPattern),
		routing.Filter(outs, matching.OutputPattern),
	)
}

func endpointNames(eps []domain.Endpoint) []string {
	names := make([]string, len(eps))
	for i, ep := range eps {
		names[i] = ep.Name
	}
	return names
}

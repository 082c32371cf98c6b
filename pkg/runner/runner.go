package runner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/midirelay"
	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/pkg/domain"
)

// Runner runs a router until shutdown is requested.
type Runner struct {
	Router    *midirelay.Router
	Signal    *domain.ShutdownSignal
	Logger    *slog.Logger
	OSSignals bool
}

// NewRunner creates a new Runner with options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Signal: &domain.ShutdownSignal{},
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the router, waits for the shutdown signal (or ctx), and shuts
// the router down. Start errors are returned; close errors after a clean run
// are only logged.
func (r *Runner) Run(ctx context.Context) error {
	if r.Router == nil {
		return errors.New("runner: no router configured")
	}

	if r.OSSignals {
		sm := NewSignalManager(r.Logger)
		defer sm.Stop()
		sm.Bind(r.Signal)
	}

	if err := r.Router.Start(ctx); err != nil {
		if cerr := r.Router.Shutdown(); cerr != nil {
			r.Logger.Warn("Errors while closing ports", "error", cerr)
		}
		return err
	}

	r.Logger.Info("Running. Press Ctrl+C to exit.")
	r.Router.Wait(ctx, r.Signal)

	if err := r.Router.Shutdown(); err != nil {
		r.Logger.Warn("Errors while closing ports", "error", err)
	}
	return nil
}

package runner

import (
	"log/slog"

	"github.com/aretw0/midirelay"
	"github.com/aretw0/midirelay/pkg/domain"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithRouter sets the router to drive. Required.
func WithRouter(router *midirelay.Router) Option {
	return func(r *Runner) {
		r.Router = router
	}
}

// WithShutdownSignal shares a shutdown signal with the caller, who may set it
// to stop the runner. By default the runner makes its own.
func WithShutdownSignal(sig *domain.ShutdownSignal) Option {
	return func(r *Runner) {
		r.Signal = sig
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithOSSignals makes SIGINT and SIGTERM set the shutdown signal.
func WithOSSignals(enabled bool) Option {
	return func(r *Runner) {
		r.OSSignals = enabled
	}
}

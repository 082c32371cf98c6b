// Package cli implements the midirelay commands on top of the router.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/midirelay"
	"github.com/aretw0/midirelay/internal/config"
	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/internal/presentation/tui"
	httpadapter "github.com/aretw0/midirelay/pkg/adapters/http"
	"github.com/aretw0/midirelay/pkg/adapters/redis"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/aretw0/midirelay/pkg/observability"
	"github.com/aretw0/midirelay/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Config config.Config
	// OpenTransport defaults to OpenRtMidi.
	OpenTransport TransportOpener
	// OSSignals makes Ctrl+C and SIGTERM stop the router.
	OSSignals bool
	Stdout    io.Writer
	Stderr    io.Writer
	// Signal, when set, lets the caller stop the router.
	Signal *domain.ShutdownSignal
}

func (o *RunOptions) defaults() {
	if o.OpenTransport == nil {
		o.OpenTransport = OpenRtMidi
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Signal == nil {
		o.Signal = &domain.ShutdownSignal{}
	}
}

// Run routes events until shutdown is requested. It returns an error only
// for configuration and start-phase failures.
func Run(ctx context.Context, opts RunOptions) error {
	opts.defaults()
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := newLogger(opts.Stderr, cfg.LogLevel)

	if !cfg.NoBanner {
		tui.PrintBanner(opts.Stdout, midirelay.Version)
	}

	transport, release, err := opts.OpenTransport(logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("Error closing MIDI driver", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := observability.NewMetrics(reg).Hooks()
	if logger.Enabled(ctx, slog.LevelDebug) {
		hooks = observability.LoggingHooks(logger).Merge(hooks)
	}

	routerOpts := []midirelay.Option{
		midirelay.WithLogger(logger),
		midirelay.WithLifecycleHooks(hooks),
		midirelay.WithSuppression(cfg.Suppression()),
		midirelay.WithPollInterval(cfg.PollInterval),
	}

	if cfg.RedisAddr != "" {
		claims, err := redis.New(ctx, cfg.RedisAddr,
			redis.WithTTL(cfg.ClaimTTL),
			redis.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		defer claims.Close()

		keepCtx, stopKeepAlive := context.WithCancel(ctx)
		kept := make(chan struct{})
		go func() {
			defer close(kept)
			claims.KeepAlive(keepCtx)
		}()
		defer func() {
			stopKeepAlive()
			<-kept
		}()
		logger.Info("Sharing output claims", "redis", cfg.RedisAddr, "ttl", cfg.ClaimTTL)
		routerOpts = append(routerOpts, midirelay.WithClaims(claims))
	}

	router := midirelay.New(transport, cfg.Matching(), routerOpts...)

	if cfg.HTTPAddr != "" {
		handler := httpadapter.NewHandler(router,
			httpadapter.WithGatherer(reg),
			httpadapter.WithShutdownSignal(opts.Signal),
			httpadapter.WithLogger(logger),
		)
		srvCtx, stopServer := context.WithCancel(ctx)
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := httpadapter.Serve(srvCtx, cfg.HTTPAddr, handler, logger); err != nil {
				logger.Error("Status server failed", "error", err)
			}
		}()
		defer func() {
			stopServer()
			<-served
		}()
	}

	r := runner.NewRunner(
		runner.WithRouter(router),
		runner.WithShutdownSignal(opts.Signal),
		runner.WithLogger(logger),
		runner.WithOSSignals(opts.OSSignals),
	)
	return r.Run(ctx)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return logging.NewWithWriter(w, lvl)
}

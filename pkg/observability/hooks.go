package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/midirelay/pkg/domain"
)

// LoggingHooks traces every lifecycle event at debug level, one record per
// event named after its type.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRouteOpened: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "route_opened", "route", e.Route.String())
		},
		OnRouteAbandoned: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "route_abandoned", "input", e.Route.Input.Name, "reason", e.Reason)
		},
		OnForward: func(ctx context.Context, e *domain.ForwardEvent) {
			logger.DebugContext(ctx, "forward", "input", e.Input, "output", e.Output, "bytes", e.Bytes)
		},
		OnForwardError: func(ctx context.Context, e *domain.ForwardEvent) {
			logger.DebugContext(ctx, "forward_error", "input", e.Input, "output", e.Output, "error", e.Err)
		},
		OnPortClosed: func(ctx context.Context, e *domain.PortEvent) {
			logger.DebugContext(ctx, "port_closed", "port", e.Port, "direction", e.Direction, "error", e.Err)
		},
	}
}

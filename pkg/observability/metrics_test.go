package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/midirelay"
	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/pkg/adapters/memory"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/aretw0/midirelay/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RouterLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	tr := memory.NewTransport(
		[]string{"INTECH-A", "INTECH-B"},
		[]string{"LOOPMIDI track 1", "LOOPMIDI remote 1"},
	)
	router := midirelay.New(tr, midirelay.Matching{
		InputPattern:  "intech",
		OutputPattern: "loopmidi",
		Fanout:        domain.FanoutSingle,
	}, midirelay.WithLifecycleHooks(m.Hooks()))

	require.NoError(t, router.Start(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RoutesOpen))

	tr.Output("LOOPMIDI remote 1").FailSend(errors.New("gone"))
	tr.Input("INTECH-A").Emit([]byte{0x90, 0x40, 0x7F}, 0)
	tr.Input("INTECH-A").Emit([]byte{0x80, 0x40, 0x00}, 0)
	tr.Input("INTECH-B").Emit([]byte{0x90, 0x41, 0x7F}, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Forwarded.WithLabelValues("INTECH-A", "LOOPMIDI track 1")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.ForwardedBytes.WithLabelValues("INTECH-A", "LOOPMIDI track 1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForwardErrors.WithLabelValues("INTECH-B", "LOOPMIDI remote 1")))

	require.NoError(t, router.Shutdown())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RoutesOpen))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PortsClosed.WithLabelValues("in", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PortsClosed.WithLabelValues("out", "ok")))
}

func TestMetrics_AbandonedRoute(t *testing.T) {
	m := observability.NewMetrics(nil)
	tr := memory.NewTransport([]string{"INTECH-A"}, []string{"LOOPMIDI track 1", "LOOPMIDI remote 1"})
	tr.FailOpenOutput("LOOPMIDI remote 1", errors.New("busy"))

	router := midirelay.New(tr, midirelay.Matching{
		InputPattern:  "intech",
		OutputPattern: "loopmidi",
		Fanout:        domain.FanoutDual,
		Primary:       "track",
		Secondary:     "remote",
	}, midirelay.WithLifecycleHooks(m.Hooks()))

	assert.ErrorIs(t, router.Start(context.Background()), domain.ErrNoRoutes)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoutesAbandoned.WithLabelValues("INTECH-A")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RoutesOpen))
}

func TestMetrics_RegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)
	assert.Panics(t, func() { observability.NewMetrics(reg) })
}

func TestLoggingHooks_TraceEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug)
	hooks := observability.LoggingHooks(logger)

	hooks.OnForwardError(context.Background(), &domain.ForwardEvent{
		Input: "INTECH-A", Output: "LOOPMIDI track 1", Bytes: 3, Err: errors.New("boom"),
	})

	out := buf.String()
	assert.Contains(t, out, "forward_error")
	assert.Contains(t, out, `output="LOOPMIDI track 1"`)
	assert.Contains(t, out, "err=boom")
}

package midirelay_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/midirelay"
	"github.com/aretw0/midirelay/pkg/adapters/memory"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dual() midirelay.Matching {
	return midirelay.Matching{
		InputPattern:  "intech",
		OutputPattern: "loopmidi",
		Fanout:        domain.FanoutDual,
		Primary:       "track",
		Secondary:     "remote",
	}
}

func single(in, out string) midirelay.Matching {
	return midirelay.Matching{InputPattern: in, OutputPattern: out, Fanout: domain.FanoutSingle}
}

func TestRouter_SingleFanoutScenario(t *testing.T) {
	tr := memory.NewTransport([]string{"NANOKEY-1", "Microsoft GS"}, []string{"Microsoft GS Wavetable", "LOOPMIDI-A"})
	router := midirelay.New(tr, single("nanokey", "loopmidi"))

	require.NoError(t, router.Start(context.Background()))
	assert.Equal(t, domain.StateRunning, router.State())

	routes := router.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "NANOKEY-1 -> LOOPMIDI-A", routes[0].String())

	tr.Input("NANOKEY-1").Emit([]byte{0x90, 0x40, 0x7F}, 0)
	assert.Equal(t, [][]byte{{0x90, 0x40, 0x7F}}, tr.Output("LOOPMIDI-A").Sent())

	require.NoError(t, router.Shutdown())
	assert.Equal(t, domain.StateStopped, router.State())
}

func TestRouter_DualFanoutScenario(t *testing.T) {
	tr := memory.NewTransport([]string{"INTECH-X"}, []string{"LOOPMIDI track 1", "LOOPMIDI remote 1"})
	router := midirelay.New(tr, dual())
	require.NoError(t, router.Start(context.Background()))
	defer router.Shutdown()

	tr.Input("INTECH-X").Emit([]byte{0xB0, 0x01, 0x40}, 0)

	assert.Equal(t, [][]byte{{0xB0, 0x01, 0x40}}, tr.Output("LOOPMIDI track 1").Sent())
	assert.Equal(t, [][]byte{{0xB0, 0x01, 0x40}}, tr.Output("LOOPMIDI remote 1").Sent())

	status := router.Status()
	require.Len(t, status, 1)
	assert.Equal(t, uint64(2), status[0].Stats.Forwarded)
}

func TestRouter_StartupFailures(t *testing.T) {
	cases := []struct {
		name     string
		inputs   []string
		outputs  []string
		matching midirelay.Matching
		want     error
	}{
		{"not enough outputs for dual", []string{"INTECH-A", "INTECH-B"}, []string{"LOOPMIDI-1"}, dual(), domain.ErrInsufficientOutputs},
		{"no inputs", []string{"Keystation"}, []string{"LOOPMIDI track 1", "LOOPMIDI remote 1"}, dual(), domain.ErrNoMatchingInputs},
		{"no outputs", []string{"INTECH-A"}, []string{"Microsoft GS"}, dual(), domain.ErrNoMatchingOutputs},
		{"no token match", []string{"INTECH-A"}, []string{"LOOPMIDI a", "LOOPMIDI b"}, dual(), domain.ErrNoRoutes},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := memory.NewTransport(tc.inputs, tc.outputs)
			router := midirelay.New(tr, tc.matching)

			err := router.Start(context.Background())
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, domain.StateFailed, router.State())
			assert.Empty(t, router.Routes())
			assert.Empty(t, tr.OpenedInputs())
			assert.Empty(t, tr.OpenedOutputs())

			assert.NoError(t, router.Shutdown())
			assert.Equal(t, domain.StateFailed, router.State(), "failed is terminal")
		})
	}
}

func TestRouter_DiscoveryFailure(t *testing.T) {
	tr := memory.NewTransport(nil, nil)
	tr.FailEnumeration(errors.New("driver not loaded"))

	err := midirelay.New(tr, dual()).Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrDiscovery)
}

func TestRouter_StartTwice(t *testing.T) {
	tr := memory.NewTransport([]string{"NANOKEY-1"}, []string{"LOOPMIDI-A"})
	router := midirelay.New(tr, single("nanokey", "loopmidi"))
	require.NoError(t, router.Start(context.Background()))
	defer router.Shutdown()

	assert.Error(t, router.Start(context.Background()))
	assert.Len(t, tr.OpenedInputs(), 1)
}

func TestRouter_SecondaryOpenFailureDoesNotLeak(t *testing.T) {
	tr := memory.NewTransport([]string{"INTECH-X"}, []string{"LOOPMIDI track 1", "LOOPMIDI remote 1"})
	tr.FailOpenOutput("LOOPMIDI remote 1", errors.New("device busy"))

	router := midirelay.New(tr, dual())
	err := router.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoRoutes)
	assert.Equal(t, domain.StateFailed, router.State())

	require.Len(t, tr.OpenedOutputs(), 1)
	assert.Equal(t, 1, tr.Output("LOOPMIDI track 1").CloseCount())
	assert.Equal(t, 1, tr.Input("INTECH-X").CloseCount())
}

func TestRouter_PartialMappingKeepsServing(t *testing.T) {
	tr := memory.NewTransport(
		[]string{"INTECH-1", "INTECH-2"},
		[]string{"LOOPMIDI track 1", "LOOPMIDI remote 1", "LOOPMIDI track 2", "LOOPMIDI remote 2"},
	)
	tr.FailOpenInput("INTECH-1", errors.New("unplugged"))

	router := midirelay.New(tr, dual())
	require.NoError(t, router.Start(context.Background()))

	routes := router.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "INTECH-2 -> LOOPMIDI track 1 & LOOPMIDI remote 1", routes[0].String())
	assert.Len(t, tr.OpenedOutputs(), 2, "only the routed outputs were opened")

	tr.Input("INTECH-2").Emit([]byte{0x90, 0x3C, 0x64}, 0)
	assert.Len(t, tr.Output("LOOPMIDI track 1").Sent(), 1)

	require.NoError(t, router.Shutdown())
	for _, out := range tr.OpenedOutputs() {
		assert.Equal(t, 1, out.CloseCount(), out.Name())
	}
}

func TestRouter_ShutdownBeforeAnyEvent(t *testing.T) {
	tr := memory.NewTransport(
		[]string{"INTECH-1", "INTECH-2"},
		[]string{"LOOPMIDI track 1", "LOOPMIDI remote 1", "LOOPMIDI track 2", "LOOPMIDI remote 2"},
	)
	poll := 20 * time.Millisecond
	router := midirelay.New(tr, dual(), midirelay.WithPollInterval(poll))
	require.NoError(t, router.Start(context.Background()))

	var sig domain.ShutdownSignal
	waited := make(chan time.Duration, 1)
	go func() {
		start := time.Now()
		router.Wait(context.Background(), &sig)
		waited <- time.Since(start)
	}()

	time.Sleep(5 * time.Millisecond)
	triggered := time.Now()
	sig.Trigger()

	select {
	case <-waited:
		assert.LessOrEqual(t, time.Since(triggered), poll+50*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the shutdown signal")
	}

	require.NoError(t, router.Shutdown())
	require.NoError(t, router.Shutdown())
	assert.Equal(t, domain.StateStopped, router.State())

	require.Len(t, tr.OpenedInputs(), 2)
	require.Len(t, tr.OpenedOutputs(), 4)
	for _, in := range tr.OpenedInputs() {
		assert.Equal(t, 1, in.CloseCount())
	}
	for _, out := range tr.OpenedOutputs() {
		assert.Equal(t, 1, out.CloseCount())
		assert.Empty(t, out.Sent())
	}
}

func TestRouter_WaitReturnsOnContextCancel(t *testing.T) {
	router := midirelay.New(memory.NewTransport(nil, nil), dual(), midirelay.WithPollInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sig domain.ShutdownSignal
	router.Wait(ctx, &sig)
	assert.True(t, sig.Triggered())
}

func TestRouter_ShutdownContinuesPastCloseFailures(t *testing.T) {
	tr := memory.NewTransport(
		[]string{"NANOKEY-1", "NANOKEY-2"},
		[]string{"LOOPMIDI-A", "LOOPMIDI-B"},
	)
	var (
		mu     sync.Mutex
		closed []string
	)
	hooks := domain.LifecycleHooks{
		OnPortClosed: func(_ context.Context, e *domain.PortEvent) {
			mu.Lock()
			defer mu.Unlock()
			closed = append(closed, e.Port)
		},
	}
	router := midirelay.New(tr, single("nanokey", "loopmidi"), midirelay.WithLifecycleHooks(hooks))
	require.NoError(t, router.Start(context.Background()))

	boom := errors.New("close failed")
	tr.Output("LOOPMIDI-A").FailClose(boom)

	err := router.Shutdown()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"NANOKEY-1", "LOOPMIDI-A", "NANOKEY-2", "LOOPMIDI-B"}, closed)
	assert.True(t, tr.Output("LOOPMIDI-B").Closed())
	assert.Equal(t, domain.StateStopped, router.State())
}

func TestRouter_ShutdownReleasesClaims(t *testing.T) {
	tr := memory.NewTransport([]string{"NANOKEY-1"}, []string{"LOOPMIDI-A"})
	claims := memory.NewClaims()
	router := midirelay.New(tr, single("nanokey", "loopmidi"), midirelay.WithClaims(claims))
	require.NoError(t, router.Start(context.Background()))

	held, _ := claims.Claimed(context.Background())
	assert.Equal(t, []string{"LOOPMIDI-A"}, held)

	require.NoError(t, router.Shutdown())
	held, _ = claims.Claimed(context.Background())
	assert.Empty(t, held)
}

func TestRouter_EventsAfterShutdownAreDropped(t *testing.T) {
	tr := memory.NewTransport([]string{"NANOKEY-1"}, []string{"LOOPMIDI-A"})
	router := midirelay.New(tr, single("nanokey", "loopmidi"))
	require.NoError(t, router.Start(context.Background()))

	in := tr.Input("NANOKEY-1")
	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				in.Emit([]byte{0x90, 0x40, 0x7F}, 0)
			}
		}
	}()

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, router.Shutdown())
	close(stop)
	wg.Wait()

	assert.Zero(t, router.Status()[0].Stats.Failed, "no send reached a closed output")
}

func TestRouter_Suppression(t *testing.T) {
	tr := memory.NewTransport([]string{"NANOKEY-1"}, []string{"LOOPMIDI-A"})
	router := midirelay.New(tr, single("nanokey", "loopmidi"))
	require.NoError(t, router.Start(context.Background()))
	defer router.Shutdown()

	in := tr.Input("NANOKEY-1")
	in.Emit([]byte{0xF8}, 0)
	in.Emit([]byte{0xFE}, 0)
	in.Emit([]byte{0xF0, 0x43, 0xF7}, 0)
	in.Emit([]byte{0x80, 0x40, 0x00}, 0)

	assert.Equal(t, [][]byte{{0x80, 0x40, 0x00}}, tr.Output("LOOPMIDI-A").Sent())
}

func TestPlan(t *testing.T) {
	tr := memory.NewTransport([]string{"INTECH-1"}, []string{"LOOPMIDI track 1", "LOOPMIDI remote 1"})

	routes, unrouted, err := midirelay.Plan(context.Background(), tr, dual())
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Empty(t, unrouted)
	assert.Empty(t, tr.OpenedInputs())
}

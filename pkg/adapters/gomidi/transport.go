// Package gomidi adapts a gomidi v2 driver to ports.Transport.
package gomidi

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/aretw0/midirelay/pkg/ports"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Transport implements ports.Transport on top of a gomidi driver
// (rtmididrv in production, testdrv in tests).
type Transport struct {
	drv    drivers.Driver
	logger *slog.Logger
}

// Option configures the Transport.
type Option func(*Transport)

// WithLogger reports driver-side listen errors to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// New wraps drv. The caller keeps ownership of the driver and closes it.
func New(drv drivers.Driver, opts ...Option) *Transport {
	t := &Transport{
		drv:    drv,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Inputs lists the driver's input ports in enumeration order.
func (t *Transport) Inputs() ([]domain.Endpoint, error) {
	ins, err := t.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("listing inputs of %s: %w", t.drv, err)
	}
	eps := make([]domain.Endpoint, len(ins))
	for i, in := range ins {
		eps[i] = domain.Endpoint{Index: i, Name: in.String(), Direction: domain.DirectionIn}
	}
	return eps, nil
}

// Outputs lists the driver's output ports in enumeration order.
func (t *Transport) Outputs() ([]domain.Endpoint, error) {
	outs, err := t.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("listing outputs of %s: %w", t.drv, err)
	}
	eps := make([]domain.Endpoint, len(outs))
	for i, out := range outs {
		eps[i] = domain.Endpoint{Index: i, Name: out.String(), Direction: domain.DirectionOut}
	}
	return eps, nil
}

// OpenInput opens the input at index.
func (t *Transport) OpenInput(index int) (ports.InputPort, error) {
	ins, err := t.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("listing inputs of %s: %w", t.drv, err)
	}
	if index < 0 || index >= len(ins) {
		return nil, fmt.Errorf("input index %d out of range (%d inputs)", index, len(ins))
	}
	in := ins[index]
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("opening input %q: %w", in.String(), err)
	}
	return &inputPort{in: in, logger: t.logger}, nil
}

// OpenOutput opens the output at index.
func (t *Transport) OpenOutput(index int) (ports.OutputPort, error) {
	outs, err := t.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("listing outputs of %s: %w", t.drv, err)
	}
	if index < 0 || index >= len(outs) {
		return nil, fmt.Errorf("output index %d out of range (%d outputs)", index, len(outs))
	}
	out := outs[index]
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("opening output %q: %w", out.String(), err)
	}
	return &outputPort{out: out}, nil
}

type inputPort struct {
	in     drivers.In
	logger *slog.Logger

	mu        sync.Mutex
	stop      func()
	listening bool
	closed    bool
}

func (p *inputPort) Name() string { return p.in.String() }

// Listen converts the driver's running millisecond timestamp into the delta
// since the previous event on this input.
func (p *inputPort) Listen(fn ports.EventFunc, filter domain.Suppression) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return domain.ErrPortClosed
	}
	if p.listening {
		return domain.ErrAlreadyListening
	}

	var last int32
	stop, err := p.in.Listen(func(msg []byte, ms int32) {
		delta := ms - last
		last = ms
		fn(msg, time.Duration(delta)*time.Millisecond)
	}, drivers.ListenConfig{
		TimeCode:    !filter.TimingClock,
		ActiveSense: !filter.ActiveSense,
		SysEx:       !filter.SysEx,
		OnErr: func(err error) {
			p.logger.Warn("Driver listen error", "port", p.in.String(), "error", err)
		},
	})
	if err != nil {
		return fmt.Errorf("listening on %q: %w", p.in.String(), err)
	}
	p.stop = stop
	p.listening = true
	return nil
}

func (p *inputPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.stop != nil {
		p.stop()
	}
	return p.in.Close()
}

type outputPort struct {
	out    drivers.Out
	closed atomic.Bool
	once   sync.Once
}

func (p *outputPort) Name() string { return p.out.String() }

func (p *outputPort) Send(msg []byte) error {
	if p.closed.Load() {
		return domain.ErrPortClosed
	}
	return p.out.Send(msg)
}

func (p *outputPort) Close() error {
	var err error
	p.once.Do(func() {
		p.closed.Store(true)
		err = p.out.Close()
	})
	return err
}

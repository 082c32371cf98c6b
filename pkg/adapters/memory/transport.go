package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/aretw0/midirelay/pkg/ports"
)

// Transport implements ports.Transport with in-process ports.
// Events are injected with Input.Emit and sends are recorded on Output.
// Open failures can be scripted per port name.
type Transport struct {
	mu         sync.Mutex
	inputs     []string
	outputs    []string
	failIn     map[string]error
	failOut    map[string]error
	openedIn   []*Input
	openedOut  []*Output
	enumFailed error
}

// NewTransport creates a transport exposing the given port names.
func NewTransport(inputs, outputs []string) *Transport {
	return &Transport{
		inputs:  append([]string(nil), inputs...),
		outputs: append([]string(nil), outputs...),
		failIn:  make(map[string]error),
		failOut: make(map[string]error),
	}
}

// FailEnumeration makes Inputs and Outputs return err.
func (t *Transport) FailEnumeration(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enumFailed = err
}

// FailOpenInput makes every OpenInput of the named port return err.
func (t *Transport) FailOpenInput(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failIn[name] = err
}

// FailOpenOutput makes every OpenOutput of the named port return err.
func (t *Transport) FailOpenOutput(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failOut[name] = err
}

// Inputs lists input endpoints.
func (t *Transport) Inputs() ([]domain.Endpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enumFailed != nil {
		return nil, t.enumFailed
	}
	return endpoints(t.inputs, domain.DirectionIn), nil
}

// Outputs lists output endpoints.
func (t *Transport) Outputs() ([]domain.Endpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enumFailed != nil {
		return nil, t.enumFailed
	}
	return endpoints(t.outputs, domain.DirectionOut), nil
}

func endpoints(names []string, dir domain.Direction) []domain.Endpoint {
	eps := make([]domain.Endpoint, len(names))
	for i, name := range names {
		eps[i] = domain.Endpoint{Index: i, Name: name, Direction: dir}
	}
	return eps
}

// OpenInput opens an input by index.
func (t *Transport) OpenInput(index int) (ports.InputPort, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.inputs) {
		return nil, fmt.Errorf("input index %d out of range", index)
	}
	name := t.inputs[index]
	if err := t.failIn[name]; err != nil {
		return nil, err
	}
	in := &Input{name: name}
	t.openedIn = append(t.openedIn, in)
	return in, nil
}

// OpenOutput opens an output by index.
func (t *Transport) OpenOutput(index int) (ports.OutputPort, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.outputs) {
		return nil, fmt.Errorf("output index %d out of range", index)
	}
	name := t.outputs[index]
	if err := t.failOut[name]; err != nil {
		return nil, err
	}
	out := &Output{name: name}
	t.openedOut = append(t.openedOut, out)
	return out, nil
}

// Input returns the most recently opened handle of the named input, or nil.
func (t *Transport) Input(name string) *Input {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.openedIn) - 1; i >= 0; i-- {
		if t.openedIn[i].name == name {
			return t.openedIn[i]
		}
	}
	return nil
}

// Output returns the most recently opened handle of the named output, or nil.
func (t *Transport) Output(name string) *Output {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.openedOut) - 1; i >= 0; i-- {
		if t.openedOut[i].name == name {
			return t.openedOut[i]
		}
	}
	return nil
}

// OpenedInputs returns every input handle opened so far.
func (t *Transport) OpenedInputs() []*Input {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Input(nil), t.openedIn...)
}

// OpenedOutputs returns every output handle opened so far.
func (t *Transport) OpenedOutputs() []*Output {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Output(nil), t.openedOut...)
}

// Input is an in-memory input handle.
type Input struct {
	name   string
	mu     sync.Mutex
	fn     ports.EventFunc
	filter domain.Suppression
	closed bool
	closes int
}

// Name returns the port name.
func (i *Input) Name() string { return i.name }

// Listen registers the consumer.
func (i *Input) Listen(fn ports.EventFunc, filter domain.Suppression) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return domain.ErrPortClosed
	}
	if i.fn != nil {
		return domain.ErrAlreadyListening
	}
	i.fn = fn
	i.filter = filter
	return nil
}

// Emit delivers msg to the consumer as a driver would, applying the
// suppression filter. The consumer runs outside the handle's lock, so Emit
// may overlap a concurrent Close the way a native callback can.
// It reports whether the consumer was called.
func (i *Input) Emit(msg []byte, delta time.Duration) bool {
	i.mu.Lock()
	fn, filter, closed := i.fn, i.filter, i.closed
	i.mu.Unlock()
	if fn == nil || closed || Suppressed(msg, filter) {
		return false
	}
	fn(msg, delta)
	return true
}

// Close marks the input closed.
func (i *Input) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closes++
	i.closed = true
	return nil
}

// Closed reports whether Close was called.
func (i *Input) Closed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.closed
}

// CloseCount returns how many times Close was called.
func (i *Input) CloseCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.closes
}

// Output is an in-memory output handle that records every send.
type Output struct {
	name     string
	mu       sync.Mutex
	sent     [][]byte
	sendErr  error
	closeErr error
	closed   bool
	closes   int
}

// Name returns the port name.
func (o *Output) Name() string { return o.name }

// FailSend makes subsequent sends return err. Pass nil to clear.
func (o *Output) FailSend(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sendErr = err
}

// FailClose makes Close return err (the handle is still marked closed).
func (o *Output) FailClose(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeErr = err
}

// Send records a copy of msg.
func (o *Output) Send(msg []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return domain.ErrPortClosed
	}
	if o.sendErr != nil {
		return o.sendErr
	}
	o.sent = append(o.sent, append([]byte(nil), msg...))
	return nil
}

// Sent returns copies of every message sent so far.
func (o *Output) Sent() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([][]byte, len(o.sent))
	for i, m := range o.sent {
		out[i] = append([]byte(nil), m...)
	}
	return out
}

// Close marks the output closed.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closes++
	o.closed = true
	return o.closeErr
}

// Closed reports whether Close was called.
func (o *Output) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// CloseCount returns how many times Close was called.
func (o *Output) CloseCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closes
}

// Suppressed reports whether filter drops msg: timing clock (0xF8),
// active sensing (0xFE) and system exclusive (0xF0..0xF7).
func Suppressed(msg []byte, filter domain.Suppression) bool {
	if len(msg) == 0 {
		return false
	}
	switch msg[0] {
	case 0xF8:
		return filter.TimingClock
	case 0xFE:
		return filter.ActiveSense
	case 0xF0, 0xF7:
		return filter.SysEx
	}
	return false
}

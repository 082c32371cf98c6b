package routing

import "github.com/aretw0/midirelay/pkg/domain"

// Target is one output slot of a route.
type Target struct {
	Label string
	Match func(name string) bool
}

// Fanout describes how each input is spread over outputs.
type Fanout struct {
	Mode    domain.FanoutMode
	Targets []Target
	// Retry keeps scanning candidates for the same input after an open
	// failure. Without it the input is abandoned.
	Retry bool
}

// Arity is the number of outputs per route. Targets holds one slot per output.
func (f Fanout) Arity() int {
	return f.Mode.Arity()
}

// SingleFanout routes each input to the first free matched output.
func SingleFanout() Fanout {
	return Fanout{
		Mode: domain.FanoutSingle,
		Targets: []Target{
			{Label: "output", Match: func(string) bool { return true }},
		},
		Retry: true,
	}
}

// DualFanout routes each input to one output containing primary and one
// containing secondary. Routes are all-or-nothing.
func DualFanout(primary, secondary string) Fanout {
	return Fanout{
		Mode: domain.FanoutDual,
		Targets: []Target{
			{Label: primary, Match: func(name string) bool { return Contains(name, primary) }},
			{Label: secondary, Match: func(name string) bool { return Contains(name, secondary) }},
		},
	}
}

// NewFanout builds the fanout for mode.
func NewFanout(mode domain.FanoutMode, primary, secondary string) Fanout {
	if mode == domain.FanoutDual {
		return DualFanout(primary, secondary)
	}
	return SingleFanout()
}

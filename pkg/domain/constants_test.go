package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFanoutMode(t *testing.T) {
	m, err := ParseFanoutMode(" Dual ")
	require.NoError(t, err)
	assert.Equal(t, FanoutDual, m)
	assert.Equal(t, 2, m.Arity())

	m, err = ParseFanoutMode("single")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Arity())

	_, err = ParseFanoutMode("triple")
	assert.ErrorIs(t, err, ErrInvalidFanout)
}

func TestRoute_String(t *testing.T) {
	r := Route{
		Input: Endpoint{Index: 0, Name: "INTECH-X", Direction: DirectionIn},
		Outputs: []Endpoint{
			{Index: 0, Name: "LOOPMIDI track 1", Direction: DirectionOut},
			{Index: 1, Name: "LOOPMIDI remote 1", Direction: DirectionOut},
		},
	}
	assert.Equal(t, "INTECH-X -> LOOPMIDI track 1 & LOOPMIDI remote 1", r.String())
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnForward: func(context.Context, *ForwardEvent) { calls = append(calls, "a") }}
	b := LifecycleHooks{
		OnForward:    func(context.Context, *ForwardEvent) { calls = append(calls, "b") },
		OnPortClosed: func(context.Context, *PortEvent) { calls = append(calls, "closed") },
	}

	merged := a.Merge(b)
	merged.OnForward(context.Background(), &ForwardEvent{})
	merged.OnPortClosed(context.Background(), &PortEvent{})

	assert.Equal(t, []string{"a", "b", "closed"}, calls)
	assert.Nil(t, merged.OnRouteOpened)
}

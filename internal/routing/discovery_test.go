package routing

import (
	"errors"
	"testing"

	"github.com/aretw0/midirelay/pkg/adapters/memory"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(eps []domain.Endpoint) []string {
	out := make([]string, len(eps))
	for i, ep := range eps {
		out[i] = ep.Name
	}
	return out
}

func TestDiscover(t *testing.T) {
	tr := memory.NewTransport([]string{"NANOKEY-1", "INTECH-X"}, []string{"LOOPMIDI-A"})

	ins, outs, err := Discover(tr)
	require.NoError(t, err)
	assert.Equal(t, []string{"NANOKEY-1", "INTECH-X"}, names(ins))
	assert.Equal(t, 1, ins[1].Index)
	assert.Equal(t, domain.DirectionOut, outs[0].Direction)

	tr.FailEnumeration(errors.New("no driver"))
	_, _, err = Discover(tr)
	assert.ErrorIs(t, err, domain.ErrDiscovery)
}

func TestFilter(t *testing.T) {
	eps := memoryEndpoints("loopMIDI Port", "Microsoft GS", "LOOPMIDI remote 1", "Intech Grid", "loopmidi track 1")

	t.Run("Case Insensitive Substring", func(t *testing.T) {
		got := Filter(eps, "LoopMidi")
		assert.Equal(t, []string{"loopMIDI Port", "LOOPMIDI remote 1", "loopmidi track 1"}, names(got))
	})

	t.Run("Preserves Order", func(t *testing.T) {
		got := Filter(eps, "i")
		assert.Equal(t, names(eps), names(got))
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := Filter(eps, "loopmidi")
		twice := Filter(once, "loopmidi")
		assert.Equal(t, once, twice)
	})

	t.Run("No Match", func(t *testing.T) {
		assert.Empty(t, Filter(eps, "nanokey"))
	})

	t.Run("Empty Pattern", func(t *testing.T) {
		assert.Len(t, Filter(eps, ""), len(eps))
	})
}

func TestCheckCapacity(t *testing.T) {
	one := memoryEndpoints("A")
	two := memoryEndpoints("A", "B")

	assert.ErrorIs(t, CheckCapacity(nil, two, 1), domain.ErrNoMatchingInputs)
	assert.ErrorIs(t, CheckCapacity(one, nil, 1), domain.ErrNoMatchingOutputs)
	assert.ErrorIs(t, CheckCapacity(two, one, 1), domain.ErrInsufficientOutputs)
	assert.ErrorIs(t, CheckCapacity(two, two, 2), domain.ErrInsufficientOutputs)

	assert.NoError(t, CheckCapacity(two, two, 1), "outputs equal to inputs is enough in single mode")
	assert.NoError(t, CheckCapacity(one, two, 2), "outputs equal to twice the inputs is enough in dual mode")
}

func memoryEndpoints(nameList ...string) []domain.Endpoint {
	eps := make([]domain.Endpoint, len(nameList))
	for i, n := range nameList {
		eps[i] = domain.Endpoint{Index: i, Name: n, Direction: domain.DirectionOut}
	}
	return eps
}

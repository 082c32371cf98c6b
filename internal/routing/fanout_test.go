package routing

import (
	"testing"

	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewFanout_OneTargetPerOutput(t *testing.T) {
	for _, mode := range []domain.FanoutMode{domain.FanoutSingle, domain.FanoutDual} {
		f := NewFanout(mode, "track", "remote")
		assert.Equal(t, mode, f.Mode)
		assert.Len(t, f.Targets, mode.Arity(), mode)
		assert.Equal(t, mode.Arity(), f.Arity())
	}
}

func TestDualFanout_TargetsMatchTokens(t *testing.T) {
	f := DualFanout("track", "remote")

	assert.True(t, f.Targets[0].Match("LOOPMIDI Track 1"))
	assert.False(t, f.Targets[0].Match("LOOPMIDI remote 1"))
	assert.True(t, f.Targets[1].Match("LOOPMIDI REMOTE 1"))
	assert.False(t, f.Retry)
	assert.True(t, SingleFanout().Retry)
}

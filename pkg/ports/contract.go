package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTransportContract runs a suite of tests to verify that a Transport
// implementation adheres to the defined interface contract.
// The transport must expose at least one input and one output.
func RunTransportContract(t *testing.T, transport Transport) {
	t.Run("Enumerate", func(t *testing.T) {
		ins, err := transport.Inputs()
		require.NoError(t, err)
		require.NotEmpty(t, ins, "contract needs at least one input")
		for i, in := range ins {
			assert.Equal(t, domain.DirectionIn, in.Direction)
			assert.Equal(t, i, in.Index, "indexes follow enumeration order")
		}

		outs, err := transport.Outputs()
		require.NoError(t, err)
		require.NotEmpty(t, outs, "contract needs at least one output")
		for i, out := range outs {
			assert.Equal(t, domain.DirectionOut, out.Direction)
			assert.Equal(t, i, out.Index, "indexes follow enumeration order")
		}
	})

	t.Run("Open Unknown Index", func(t *testing.T) {
		_, err := transport.OpenInput(-1)
		assert.Error(t, err)
		_, err = transport.OpenOutput(1 << 20)
		assert.Error(t, err)
	})

	t.Run("Single Listener", func(t *testing.T) {
		in, err := transport.OpenInput(0)
		require.NoError(t, err)
		defer in.Close()

		noop := func([]byte, time.Duration) {}
		require.NoError(t, in.Listen(noop, domain.DefaultSuppression()))
		assert.ErrorIs(t, in.Listen(noop, domain.DefaultSuppression()), domain.ErrAlreadyListening)
	})

	t.Run("Close Is Idempotent", func(t *testing.T) {
		in, err := transport.OpenInput(0)
		require.NoError(t, err)
		assert.NoError(t, in.Close())
		assert.NoError(t, in.Close())

		out, err := transport.OpenOutput(0)
		require.NoError(t, err)
		assert.NoError(t, out.Close())
		assert.NoError(t, out.Close())
	})

	t.Run("Send After Close", func(t *testing.T) {
		out, err := transport.OpenOutput(0)
		require.NoError(t, err)
		require.NoError(t, out.Close())
		assert.ErrorIs(t, out.Send([]byte{0x90, 0x40, 0x7f}), domain.ErrPortClosed)
	})
}

// RunClaimRegistryContract verifies a ClaimRegistry implementation.
// The registry must start empty.
func RunClaimRegistryContract(t *testing.T, registry ClaimRegistry) {
	ctx := context.Background()
	output := "contract-out-" + time.Now().Format("20060102150405.000000000")

	t.Run("Claim Once", func(t *testing.T) {
		claimed, err := registry.IsClaimed(ctx, output)
		require.NoError(t, err)
		assert.False(t, claimed)

		require.NoError(t, registry.Claim(ctx, output))

		claimed, err = registry.IsClaimed(ctx, output)
		require.NoError(t, err)
		assert.True(t, claimed)

		assert.ErrorIs(t, registry.Claim(ctx, output), domain.ErrClaimed)
	})

	t.Run("Claimed Keeps Order", func(t *testing.T) {
		second := output + "-b"
		require.NoError(t, registry.Claim(ctx, second))
		defer func() { _ = registry.Release(ctx, second) }()

		list, err := registry.Claimed(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{output, second}, list)
	})

	t.Run("Release", func(t *testing.T) {
		require.NoError(t, registry.Release(ctx, output))

		claimed, err := registry.IsClaimed(ctx, output)
		require.NoError(t, err)
		assert.False(t, claimed)

		assert.NoError(t, registry.Release(ctx, output), "release of a free output is a no-op")
	})
}

//go:build unix

package runner

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalManager_SIGTERMTriggers(t *testing.T) {
	sm := NewSignalManager(nil)
	defer sm.Stop()
	sig := &domain.ShutdownSignal{}
	sm.Bind(sig)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	assert.Eventually(t, sig.Triggered, time.Second, 10*time.Millisecond)
}

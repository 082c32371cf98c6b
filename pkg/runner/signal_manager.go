package runner

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/pkg/domain"
)

// SignalManager turns OS termination signals into a shutdown request.
type SignalManager struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	logger  *slog.Logger
}

// NewSignalManager creates a new manager and immediately starts listening for signals.
func NewSignalManager(logger *slog.Logger) *SignalManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	// We capture SIGINT (Ctrl+C) and SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &SignalManager{ctx: ctx, cancel: cancel, logger: logger}
}

// Context returns the signal context. It is done once a signal arrives or
// Stop is called.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Bind sets sig when a signal arrives. It returns immediately; the watcher
// exits when sig is set by anyone or the manager is stopped.
func (sm *SignalManager) Bind(sig *domain.ShutdownSignal) {
	go func() {
		select {
		case <-sm.ctx.Done():
		case <-sig.Done():
			return
		}
		if sm.isStopped() {
			return
		}
		if sig.Trigger() {
			sm.logger.Info("Shutdown requested")
		}
	}()
}

// Stop permanently stops the signal listener without setting any bound signal.
func (sm *SignalManager) Stop() {
	sm.mu.Lock()
	sm.stopped = true
	sm.mu.Unlock()
	sm.cancel()
}

func (sm *SignalManager) isStopped() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.stopped
}

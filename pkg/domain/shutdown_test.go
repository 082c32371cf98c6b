package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownSignal_TriggerOnce(t *testing.T) {
	var sig ShutdownSignal
	assert.False(t, sig.Triggered())

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sig.Trigger() {
				mu.Lock()
				first++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, first)
	assert.True(t, sig.Triggered())
	select {
	case <-sig.Done():
	default:
		t.Fatal("Done must be closed after Trigger")
	}
}

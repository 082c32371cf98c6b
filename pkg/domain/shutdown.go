package domain

import (
	"sync"
	"sync/atomic"
)

// ShutdownSignal is a flag set once by the first termination request.
// The zero value is ready to use.
type ShutdownSignal struct {
	set  atomic.Bool
	once sync.Once
	done chan struct{}
	mu   sync.Mutex
}

// Trigger sets the flag. It reports whether this call was the one that set it.
func (s *ShutdownSignal) Trigger() bool {
	first := false
	s.once.Do(func() {
		first = true
		s.set.Store(true)
		close(s.channel())
	})
	return first
}

// Triggered reports whether Trigger has been called.
func (s *ShutdownSignal) Triggered() bool {
	return s.set.Load()
}

// Done is closed when the flag is set.
func (s *ShutdownSignal) Done() <-chan struct{} {
	return s.channel()
}

func (s *ShutdownSignal) channel() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		s.done = make(chan struct{})
	}
	return s.done
}

package routing

import (
	"errors"
	"sync"

	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/aretw0/midirelay/pkg/ports"
)

// OutputTarget is an opened output of a session paired with its lock.
// Every sender on Port must hold Lock.
type OutputTarget struct {
	Endpoint domain.Endpoint
	Port     ports.OutputPort
	Lock     *sync.Mutex
}

// Session holds the opened handles of one route.
type Session struct {
	Route   domain.Route
	Input   ports.InputPort
	Outputs []OutputTarget

	closeOnce sync.Once
}

// CloseFunc observes each handle closed by Session.Close.
type CloseFunc func(ep domain.Endpoint, err error)

// Close closes the input and then every output, continuing past failures.
// Only the first call does anything; later calls return nil.
func (s *Session) Close(observe CloseFunc) error {
	var errs []error
	s.closeOnce.Do(func() {
		errs = closeHandles(s.Route.Input, s.Input, s.Outputs, observe)
	})
	return errors.Join(errs...)
}

func closeHandles(inEp domain.Endpoint, in ports.InputPort, outs []OutputTarget, observe CloseFunc) []error {
	var errs []error
	if in != nil {
		err := in.Close()
		if observe != nil {
			observe(inEp, err)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	for _, out := range outs {
		if out.Port == nil {
			continue
		}
		err := out.Port.Close()
		if observe != nil {
			observe(out.Endpoint, err)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

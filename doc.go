/*
Package midirelay mirrors MIDI events from hardware inputs to virtual outputs
chosen by name matching.

The Router discovers the transport's endpoints, keeps the inputs and outputs
whose names contain the configured patterns, and assigns each matched input to
one free output (single fanout) or to one "primary" and one "secondary" output
(dual fanout). Every input then gets a relay that forwards each event's bytes,
unchanged, to its outputs while holding the output's lock.

# Lifecycle

	idle -> starting -> running -> shutting_down -> stopped
	            \-> failed

Start runs discovery and allocation; any failure there is fatal and leaves
the router in the failed state with nothing open. Wait blocks until the
shutdown signal is set, checking it at a bounded poll interval. Shutdown stops
every relay, then closes each route's input and outputs, continuing past close
failures.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/midirelay"
		"github.com/aretw0/midirelay/pkg/adapters/gomidi"
		"github.com/aretw0/midirelay/pkg/domain"
		"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	)

	func main() {
		drv, err := rtmididrv.New()
		if err != nil {
			log.Fatal(err)
		}
		defer drv.Close()

		router := midirelay.New(gomidi.New(drv), midirelay.Matching{
			InputPattern:  "INTECH",
			OutputPattern: "LOOPMIDI",
			Fanout:        domain.FanoutDual,
			Primary:       "track",
			Secondary:     "remote",
		})

		ctx := context.Background()
		if err := router.Start(ctx); err != nil {
			log.Fatal(err)
		}
		var sig domain.ShutdownSignal
		// hand &sig to a signal handler, then:
		router.Wait(ctx, &sig)
		_ = router.Shutdown()
	}
*/
package midirelay

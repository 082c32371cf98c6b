/*
Package runner drives a midirelay.Router from the controlling goroutine.

It owns the process-level concerns the router does not: turning SIGINT and
SIGTERM into a domain.ShutdownSignal, waiting on that signal, and reporting
close errors once the router has shut down.

# Key Components

  - Runner: runs Start, Wait and Shutdown in order.
  - SignalManager: sets the shutdown signal on the first OS interrupt.

# Usage

	r := runner.NewRunner(
		runner.WithRouter(router),
		runner.WithLogger(logger),
		runner.WithOSSignals(true),
	)

	if err := r.Run(ctx); err != nil {
		os.Exit(1)
	}
*/
package runner

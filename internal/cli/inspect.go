package cli

import (
	"context"
	"io"

	"github.com/aretw0/midirelay"
	"github.com/aretw0/midirelay/internal/config"
	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/internal/presentation/tui"
	"github.com/aretw0/midirelay/internal/routing"
)

// Ports prints every endpoint the transport reports.
func Ports(w io.Writer, open TransportOpener) error {
	if open == nil {
		open = OpenRtMidi
	}
	transport, release, err := open(logging.NewNop())
	if err != nil {
		return err
	}
	defer release()

	ins, outs, err := routing.Discover(transport)
	if err != nil {
		return err
	}
	return tui.Print(w, tui.PortsMarkdown(ins, outs))
}

// Plan prints the routes run would create with cfg, without opening any port.
func Plan(ctx context.Context, w io.Writer, cfg config.Config, open TransportOpener) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if open == nil {
		open = OpenRtMidi
	}
	transport, release, err := open(logging.NewNop())
	if err != nil {
		return err
	}
	defer release()

	routes, unrouted, err := midirelay.Plan(ctx, transport, cfg.Matching())
	if err != nil {
		return err
	}
	return tui.Print(w, tui.PlanMarkdown(routes, unrouted))
}

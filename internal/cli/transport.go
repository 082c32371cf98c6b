package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/midirelay/pkg/adapters/gomidi"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/aretw0/midirelay/pkg/ports"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// TransportOpener opens the MIDI transport and returns a function that
// releases it.
type TransportOpener func(logger *slog.Logger) (ports.Transport, func() error, error)

// OpenRtMidi opens the system MIDI API through rtmidi.
func OpenRtMidi(logger *slog.Logger) (ports.Transport, func() error, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: can't open MIDI driver: %w", domain.ErrDiscovery, err)
	}
	return gomidi.New(drv, gomidi.WithLogger(logger)), drv.Close, nil
}

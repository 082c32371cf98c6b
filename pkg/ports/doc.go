/*
Package ports defines the driven ports (interfaces) of the MIDI relay.

These interfaces decouple routing logic from the MIDI subsystem and from the
claim bookkeeping, so the router runs the same against a real driver, an
in-memory fake, or a shared Redis registry.

# Key Interfaces

  - Transport: enumerates endpoints and opens them by index.
  - InputPort: an opened input that delivers events to exactly one consumer.
  - OutputPort: an opened output that sends raw bytes synchronously.
  - ClaimRegistry: records which outputs are held by a route.
*/
package ports

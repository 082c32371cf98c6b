/*
Package domain contains the core domain models of the MIDI relay.

It defines the entities the matcher, relay and lifecycle manager share, and is
kept free of I/O so that the transport can be swapped (real MIDI driver or an
in-memory fake) without touching routing logic.

# Key Entities

  - Endpoint: an indexed, named MIDI input or output port as reported by one discovery call.
  - Route: one input endpoint assigned to one or two output endpoints.
  - FanoutMode: how many outputs each input is mirrored to (single or dual).
  - Suppression: which message classes the transport drops before delivery.
  - LifecycleHooks: observability callbacks fired by the router and relays.
*/
package domain

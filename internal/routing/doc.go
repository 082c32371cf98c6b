/*
Package routing discovers MIDI endpoints, matches them by name and allocates
each matched input to one or two free outputs.

Allocation is single-threaded and runs before any relay is installed, so the
route table, the claim registry and the output lock map are only mutated
while nothing else is reading the outputs.
*/
package routing

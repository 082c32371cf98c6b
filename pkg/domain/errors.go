package domain

import "errors"

// Startup failures. Any of these aborts the router before it starts running.
var (
	ErrDiscovery           = errors.New("port discovery failed")
	ErrNoMatchingInputs    = errors.New("no matching input ports")
	ErrNoMatchingOutputs   = errors.New("no matching output ports")
	ErrInsufficientOutputs = errors.New("not enough output ports for the matched inputs")
	ErrNoRoutes            = errors.New("port mapping failed: no routes opened")
)

// ErrOpen is returned when an endpoint of a candidate route cannot be opened.
var ErrOpen = errors.New("failed to open port")

// ErrClaimed is returned when an output is already held by another route.
var ErrClaimed = errors.New("output already claimed")

// ErrPortClosed is returned by handles used after Close.
var ErrPortClosed = errors.New("port is closed")

// ErrInvalidFanout is returned for an unknown fanout mode name.
var ErrInvalidFanout = errors.New("invalid fanout mode")

// ErrAlreadyListening is returned when a second consumer is registered on an input.
var ErrAlreadyListening = errors.New("input already has a listener")

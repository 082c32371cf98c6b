package domain

import (
	"fmt"
	"strings"
)

// FanoutMode selects how many outputs each matched input is mirrored to.
type FanoutMode string

const (
	FanoutSingle FanoutMode = "single"
	FanoutDual   FanoutMode = "dual"
)

// Arity returns the number of outputs a route holds in this mode.
func (m FanoutMode) Arity() int {
	if m == FanoutDual {
		return 2
	}
	return 1
}

// ParseFanoutMode accepts "single" or "dual" (case-insensitive).
func ParseFanoutMode(s string) (FanoutMode, error) {
	switch FanoutMode(strings.ToLower(strings.TrimSpace(s))) {
	case FanoutSingle:
		return FanoutSingle, nil
	case FanoutDual:
		return FanoutDual, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFanout, s)
}

// Suppression lists the message classes the transport drops at the input.
type Suppression struct {
	TimingClock bool `json:"timing_clock"`
	ActiveSense bool `json:"active_sense"`
	SysEx       bool `json:"sysex"`
}

// DefaultSuppression drops timing clock, active sensing and system exclusive.
func DefaultSuppression() Suppression {
	return Suppression{TimingClock: true, ActiveSense: true, SysEx: true}
}

package routing

import (
	"fmt"
	"strings"

	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/aretw0/midirelay/pkg/ports"
)

// Discover lists the transport's inputs and outputs in enumeration order.
func Discover(t ports.Transport) (inputs, outputs []domain.Endpoint, err error) {
	inputs, err = t.Inputs()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrDiscovery, err)
	}
	outputs, err = t.Outputs()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrDiscovery, err)
	}
	return inputs, outputs, nil
}

// Contains reports whether name contains token, ignoring case.
func Contains(name, token string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(token))
}

// Filter keeps the endpoints whose name contains pattern (case-insensitive),
// preserving order. An empty pattern keeps everything.
func Filter(endpoints []domain.Endpoint, pattern string) []domain.Endpoint {
	matched := make([]domain.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if Contains(ep.Name, pattern) {
			matched = append(matched, ep)
		}
	}
	return matched
}

// CheckCapacity fails when there is nothing to route or when the matched
// outputs cannot give every matched input arity outputs.
func CheckCapacity(inputs, outputs []domain.Endpoint, arity int) error {
	if len(inputs) == 0 {
		return domain.ErrNoMatchingInputs
	}
	if len(outputs) == 0 {
		return domain.ErrNoMatchingOutputs
	}
	if need := arity * len(inputs); len(outputs) < need {
		return fmt.Errorf("%w: %d inputs need %d outputs, found %d",
			domain.ErrInsufficientOutputs, len(inputs), need, len(outputs))
	}
	return nil
}

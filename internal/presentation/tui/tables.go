package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/midirelay/pkg/domain"
)

// PortsMarkdown lists discovered endpoints, inputs first, in enumeration order.
func PortsMarkdown(inputs, outputs []domain.Endpoint) string {
	var b strings.Builder
	b.WriteString("# MIDI ports\n\n")
	b.WriteString("| Direction | Index | Name |\n|---|---|---|\n")
	for _, ep := range append(append([]domain.Endpoint{}, inputs...), outputs...) {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", ep.Direction, ep.Index, escape(ep.Name))
	}
	if len(inputs)+len(outputs) == 0 {
		b.WriteString("\n_No ports found._\n")
	}
	return b.String()
}

// PlanMarkdown shows the routes a run would create and the inputs it would skip.
func PlanMarkdown(routes []domain.Route, unrouted []domain.Endpoint) string {
	var b strings.Builder
	b.WriteString("# Routing plan\n\n")
	if len(routes) == 0 {
		b.WriteString("_No routes._\n")
	} else {
		b.WriteString("| Input | Outputs |\n|---|---|\n")
		for _, r := range routes {
			fmt.Fprintf(&b, "| %s | %s |\n", escape(r.Input.Name), escape(strings.Join(r.OutputNames(), ", ")))
		}
	}
	if len(unrouted) > 0 {
		b.WriteString("\n## Skipped inputs\n\n")
		for _, ep := range unrouted {
			fmt.Fprintf(&b, "- %s\n", escape(ep.Name))
		}
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

package viewstate

import (
	"slices"

	"github.com/agentstation/storefront/pkg/catalogs"
)

// Phase is the coarse presentation state of the product list.
type Phase int

// Phases. Refresh returns to PhaseShimmering; pagination stays in PhaseLoaded.
const (
	PhaseIdle Phase = iota
	PhaseShimmering
	PhaseLoaded
	PhaseDegraded
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseShimmering:
		return "shimmering"
	case PhaseLoaded:
		return "loaded"
	case PhaseDegraded:
		return "degraded"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a snapshot of everything a presentation layer needs.
type State struct {
	Phase    Phase              `json:"phase"`
	Products []catalogs.Product `json:"products"`
	Message  string             `json:"message,omitempty"`
	Layout   catalogs.Layout    `json:"layout"`
	Limit    int                `json:"limit"`
	Fetching bool               `json:"fetching"`
}

func (s State) clone() State {
	s.Products = slices.Clone(s.Products)
	return s
}

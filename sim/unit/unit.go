// Package unit implements the per-equipment models of the flowsheet engine.
// Each model is an empirical approximation: a feed source, a terminal
// product, compression crushers, tumbling mills, hydrocyclones and screens.
package unit

import (
	"fmt"
	"sort"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
)

// Type tags understood by New.
const (
	TypeFeed         = sim.NodeTypeFeed
	TypeProduct      = sim.NodeTypeProduct
	TypeJawCrusher   = "jaw_crusher"
	TypeConeCrusher  = "cone_crusher"
	TypeSAGMill      = "sag_mill"
	TypeBallMill     = "ball_mill"
	TypeHydrocyclone = "hydrocyclone"
	TypeVibScreen    = "vib_screen"
	TypeBananaScreen = "banana_screen"
)

// Port names used by the models.
const (
	PortIn        = "in"
	PortOut       = "out"
	PortFeed      = "feed"
	PortOverflow  = "overflow"
	PortUnderflow = "underflow"
	PortOversize  = "oversize"
	PortUndersize = "undersize"
)

// validTypes is the registry of recognized type tags.
var validTypes = map[string]bool{
	TypeFeed: true, TypeProduct: true,
	TypeJawCrusher: true, TypeConeCrusher: true,
	TypeSAGMill: true, TypeBallMill: true,
	TypeHydrocyclone: true,
	TypeVibScreen: true, TypeBananaScreen: true,
}

// IsValidType reports whether tag names a known unit type.
func IsValidType(tag string) bool {
	return validTypes[tag]
}

// ValidTypes returns the known type tags, sorted.
func ValidTypes() []string {
	out := make([]string, 0, len(validTypes))
	for t := range validTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// New creates the unit model for node's type tag.
// Returns an error wrapping sim.ErrUnknownUnitType for unrecognized tags.
func New(node sim.GraphNode) (sim.UnitModel, error) {
	switch node.Type {
	case TypeFeed:
		return NewFeed(node), nil
	case TypeProduct:
		return NewProduct(node), nil
	case TypeJawCrusher, TypeConeCrusher:
		return NewCrusher(node), nil
	case TypeSAGMill, TypeBallMill:
		return NewMill(node), nil
	case TypeHydrocyclone:
		return NewHydrocyclone(node), nil
	case TypeVibScreen, TypeBananaScreen:
		return NewScreen(node), nil
	default:
		return nil, fmt.Errorf("%w %q", sim.ErrUnknownUnitType, node.Type)
	}
}

// inputStream returns the stream on port, falling back to alias and then to
// the only input when exactly one is present.
func inputStream(inputs map[string]*sim.Stream, port, alias string) (*sim.Stream, bool) {
	if s, ok := inputs[port]; ok && s != nil {
		return s, true
	}
	if s, ok := inputs[alias]; ok && s != nil {
		return s, true
	}
	if len(inputs) == 1 {
		for _, s := range inputs {
			if s != nil {
				return s, true
			}
		}
	}
	return nil, false
}

func missingInput(port string) sim.UnitResult {
	return sim.Failed(fmt.Errorf("%w on port %q", sim.ErrMissingInput, port))
}

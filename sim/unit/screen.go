package unit

import (
	"math"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/psd"
)

const (
	undersizeSizeFactor = 0.7
	oversizeSizeFactor  = 2.0
)

// Screen splits a stream at its aperture. Like the hydrocyclone, the split
// uses the feed PSD while each product PSD is synthesized from the aperture.
type Screen struct {
	Aperture   float64 // mm
	Efficiency float64 // fraction of true undersize that reports to undersize
}

// NewScreen reads aperture (10 mm) and efficiency (0.9) from node.
func NewScreen(node sim.GraphNode) *Screen {
	return &Screen{
		Aperture:   node.Param("aperture", 10),
		Efficiency: math.Max(0, math.Min(1, node.Param("efficiency", 0.9))),
	}
}

// undersizeFraction estimates the share of feed mass reporting to undersize.
// Without a PSD it falls back to a coarse step on the aperture.
func (s *Screen) undersizeFraction(feed *sim.Stream) float64 {
	if feed.PSD != nil {
		return feed.PSD.PassingAtSize(s.Aperture) / 100 * s.Efficiency
	}
	switch {
	case s.Aperture >= 10:
		return 0.6 * s.Efficiency
	case s.Aperture >= 1:
		return 0.4 * s.Efficiency
	default:
		return 0.2 * s.Efficiency
	}
}

// Calculate splits the "feed" stream into oversize and undersize. Both
// products keep the feed's solids percent.
func (s *Screen) Calculate(inputs map[string]*sim.Stream) sim.UnitResult {
	feed, ok := inputStream(inputs, PortFeed, PortIn)
	if !ok {
		return missingInput(PortFeed)
	}
	frac := s.undersizeFraction(feed)
	underMass := feed.MassTPH * frac
	overMass := feed.MassTPH - underMass

	undersize := sim.NewStream(underMass, feed.SolidsPct, psd.FromF80(undersizeSizeFactor*s.Aperture))
	oversize := sim.NewStream(overMass, feed.SolidsPct, psd.FromF80(oversizeSizeFactor*s.Aperture))

	res := sim.NewUnitResult()
	res.Outputs[PortUndersize] = undersize
	res.Outputs[PortOversize] = oversize
	res.KPIs["feed_tph"] = feed.MassTPH
	res.KPIs["undersize_tph"] = underMass
	res.KPIs["oversize_tph"] = overMass
	res.KPIs["undersize_fraction_pct"] = 100 * frac
	return res
}

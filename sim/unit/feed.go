package unit

import (
	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/psd"
)

// Feed is a fresh-ore source. It has no inputs and emits one stream whose
// PSD is synthesized from the configured F80.
type Feed struct {
	TPH       float64
	SolidsPct float64
	F80       float64 // mm
}

// NewFeed reads tph (100), solids_pct (100) and f80 (150 mm) from node.
func NewFeed(node sim.GraphNode) *Feed {
	return &Feed{
		TPH:       node.Param("tph", 100),
		SolidsPct: node.Param("solids_pct", 100),
		F80:       node.Param("f80", 150),
	}
}

// Calculate ignores inputs and emits the configured feed on "out".
func (f *Feed) Calculate(_ map[string]*sim.Stream) sim.UnitResult {
	dist := psd.FromF80(f.F80)
	out := sim.NewStream(f.TPH, f.SolidsPct, dist)

	res := sim.NewUnitResult()
	res.Outputs[PortOut] = out
	res.KPIs[sim.KPIThroughput] = f.TPH
	res.KPIs["solids_pct"] = f.SolidsPct
	if dist != nil {
		res.KPIs[sim.KPIF80] = dist.P80()
		res.KPIs[sim.KPIF50] = dist.P50()
	}
	return res
}

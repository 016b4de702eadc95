package unit

import (
	"fmt"
	"math"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/psd"
)

const (
	// bondWorkIndex is the fixed Bond work index, kWh/t.
	bondWorkIndex = 15.0
	// minMillP80Microns is the finest product a mill is allowed to report.
	minMillP80Microns = 20.0

	sagMaxSolidsPct  = 75.0
	ballMaxSolidsPct = 70.0
)

// Mill models SAG and ball mills by inverting a simplified Bond's law:
//
//	E = Wi * (10/sqrt(P80) - 10/sqrt(F80))   (sizes in µm)
//
// solved for P80 given the installed power and the feed rate.
type Mill struct {
	Type    string
	PowerKW float64
	F80     float64 // mm, used only when the feed carries no PSD
}

// NewMill reads power_kw and f80 from node. Defaults: SAG 5000 kW / 150 mm,
// ball 3000 kW / 10 mm.
func NewMill(node sim.GraphNode) *Mill {
	power, f80 := 3000.0, 10.0
	if node.Type == TypeSAGMill {
		power, f80 = 5000.0, 150.0
	}
	return &Mill{
		Type:    node.Type,
		PowerKW: node.Param("power_kw", power),
		F80:     node.Param("f80", f80),
	}
}

// bondP80 returns the product P80 in µm for a specific energy (kWh/t) and a
// feed F80 in µm, clamped to [20 µm, F80].
func bondP80(specificEnergy, f80Microns float64) float64 {
	denom := specificEnergy/bondWorkIndex + 10/math.Sqrt(f80Microns)
	p80 := math.Pow(10/denom, 2)
	return math.Max(minMillP80Microns, math.Min(p80, f80Microns))
}

// Calculate grinds the "feed" stream. Mass is conserved; slurry density is
// capped by mill type.
func (m *Mill) Calculate(inputs map[string]*sim.Stream) sim.UnitResult {
	feed, ok := inputStream(inputs, PortFeed, PortIn)
	if !ok {
		return missingInput(PortFeed)
	}
	if feed.MassTPH <= 0 {
		return sim.Failed(fmt.Errorf("%w: mill feed is %.3f t/h", sim.ErrZeroFeed, feed.MassTPH))
	}

	f80 := m.F80
	if feed.PSD != nil {
		f80 = feed.PSD.P80()
	}
	if f80 <= 0 {
		return sim.Failed(fmt.Errorf("feed F80 must be positive, got %v mm", f80))
	}
	specificEnergy := m.PowerKW / feed.MassTPH
	p80 := bondP80(specificEnergy, f80*1000) / 1000

	var dist *psd.PSD
	if feed.PSD != nil {
		dist = feed.PSD.ScaleByFactor(f80 / p80)
	} else {
		dist = psd.FromF80(p80)
	}

	maxSolids := ballMaxSolidsPct
	if m.Type == TypeSAGMill {
		maxSolids = sagMaxSolidsPct
	}
	solids := math.Min(feed.SolidsPct, maxSolids)
	out := sim.NewStream(feed.MassTPH, solids, dist)

	res := sim.NewUnitResult()
	res.Outputs[PortOut] = out
	res.KPIs[sim.KPIThroughput] = feed.MassTPH
	res.KPIs[sim.KPIF80] = f80
	res.KPIs[sim.KPIP80] = p80
	res.KPIs["reduction_ratio"] = f80 / p80
	res.KPIs[sim.KPIPower] = m.PowerKW
	res.KPIs[sim.KPISpecificPower] = specificEnergy
	res.KPIs["solids_pct"] = solids
	return res
}

package unit

import (
	"fmt"
	"math"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/psd"
)

const (
	// capacityOverload is the tolerated overload before a crusher rejects its feed.
	capacityOverload = 1.1
	// crusherEnergyCoeff scales F80/CSS into specific energy (kWh/t).
	crusherEnergyCoeff = 0.3
)

// Crusher models jaw and cone crushers. Product P80 is set by the reduction
// ratio and bounded by the closed side setting; mass passes through unchanged.
type Crusher struct {
	Type           string
	CSS            float64 // closed side setting, mm
	ReductionRatio float64
	Capacity       float64 // t/h; +Inf when unset
}

// NewCrusher reads css, reduction_ratio and capacity from node. Defaults
// depend on the type: jaw 100 mm / 6, cone 25 mm / 4, unlimited capacity.
func NewCrusher(node sim.GraphNode) *Crusher {
	css, rr := 100.0, 6.0
	if node.Type == TypeConeCrusher {
		css, rr = 25.0, 4.0
	}
	return &Crusher{
		Type:           node.Type,
		CSS:            node.Param("css", css),
		ReductionRatio: node.Param("reduction_ratio", rr),
		Capacity:       node.Param("capacity", math.Inf(1)),
	}
}

// Calculate crushes the "feed" stream.
func (c *Crusher) Calculate(inputs map[string]*sim.Stream) sim.UnitResult {
	feed, ok := inputStream(inputs, PortFeed, PortIn)
	if !ok {
		return missingInput(PortFeed)
	}
	if feed.MassTPH > capacityOverload*c.Capacity {
		return sim.Failed(fmt.Errorf("%w: feed %.1f t/h exceeds %.0f%% of capacity %.1f t/h",
			sim.ErrCapacityExceeded, feed.MassTPH, capacityOverload*100, c.Capacity))
	}
	if c.CSS <= 0 || c.ReductionRatio <= 0 {
		return sim.Failed(fmt.Errorf("css and reduction_ratio must be positive, got css=%v reduction_ratio=%v", c.CSS, c.ReductionRatio))
	}

	f80 := 3 * c.CSS
	if feed.PSD != nil {
		f80 = feed.PSD.P80()
	}
	p80 := math.Max(math.Min(f80/c.ReductionRatio, 0.8*c.CSS), 0.5*c.CSS)
	factor := f80 / p80

	var dist *psd.PSD
	if feed.PSD != nil {
		dist = feed.PSD.ScaleByFactor(factor)
	} else {
		dist = psd.FromF80(p80)
	}
	out := sim.NewStream(feed.MassTPH, feed.SolidsPct, dist)

	specificEnergy := crusherEnergyCoeff * f80 / c.CSS
	res := sim.NewUnitResult()
	res.Outputs[PortOut] = out
	res.KPIs[sim.KPIThroughput] = feed.MassTPH
	res.KPIs[sim.KPIF80] = f80
	res.KPIs[sim.KPIP80] = p80
	res.KPIs["reduction_ratio"] = factor
	res.KPIs[sim.KPISpecificPower] = specificEnergy
	res.KPIs[sim.KPIPower] = specificEnergy * feed.MassTPH
	return res
}

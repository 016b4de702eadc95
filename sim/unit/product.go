package unit

import "github.com/flowsheet-sim/flowsheet-sim/sim"

// fines240Mesh is the 240 mesh aperture in mm.
const fines240Mesh = 0.063

// Product is a terminal sink that reports the quality of what reaches it.
type Product struct{}

// NewProduct creates a Product. It has no parameters.
func NewProduct(_ sim.GraphNode) *Product { return &Product{} }

// Calculate reports throughput and, when a PSD is present, P80/P50/P98 and
// the percent passing 240 mesh. It produces no output streams.
func (p *Product) Calculate(inputs map[string]*sim.Stream) sim.UnitResult {
	in, ok := inputStream(inputs, PortIn, PortFeed)
	if !ok {
		return missingInput(PortIn)
	}
	res := sim.NewUnitResult()
	res.KPIs[sim.KPIThroughput] = in.MassTPH
	res.KPIs["water_tph"] = in.WaterTPH()
	if in.PSD != nil {
		res.KPIs[sim.KPIP80] = in.PSD.P80()
		res.KPIs[sim.KPIP50] = in.PSD.P50()
		res.KPIs[sim.KPIP98] = in.PSD.P98()
		res.KPIs[sim.KPIPassing240] = in.PSD.PassingAtSize(fines240Mesh)
	}
	return res
}

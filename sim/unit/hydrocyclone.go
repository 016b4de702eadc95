package unit

import (
	"math"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/psd"
)

const (
	// plittLn2 is ln(2), which makes E(d50) = 0.5.
	plittLn2 = 0.693
	// noPSDUnderflowFraction is the split used when the feed has no PSD.
	noPSDUnderflowFraction = 0.3

	overflowSizeFactor  = 0.8
	underflowSizeFactor = 2.5
)

// Hydrocyclone classifies a slurry by size using a Plitt partition curve.
//
// The mass split comes from the feed PSD, but each product's PSD is
// synthesized on its own from d50. The two are not derived from one model.
type Hydrocyclone struct {
	D50                float64 // cut size, mm
	Sharpness          float64
	UnderflowSolidsPct float64
}

// NewHydrocyclone reads d50 (0.075 mm), sharpness (2.0) and
// underflow_solids_pct (65) from node.
func NewHydrocyclone(node sim.GraphNode) *Hydrocyclone {
	return &Hydrocyclone{
		D50:                node.Param("d50", 0.075),
		Sharpness:          node.Param("sharpness", 2.0),
		UnderflowSolidsPct: node.Param("underflow_solids_pct", 65),
	}
}

// efficiency is the fraction of particles of the given size reporting to underflow.
func (h *Hydrocyclone) efficiency(size float64) float64 {
	if h.D50 <= 0 {
		return 1
	}
	return 1 - math.Exp(-plittLn2*math.Pow(size/h.D50, h.Sharpness))
}

// underflowFraction partitions the feed PSD class by class. Each class between
// consecutive points is represented by its geometric-mean size; material
// finer than the first point and coarser than the last point are classes at
// the boundary sizes.
func (h *Hydrocyclone) underflowFraction(dist *psd.PSD) float64 {
	pts := dist.Points()
	frac := pts[0].Passing / 100 * h.efficiency(pts[0].Size)
	for i := 1; i < len(pts); i++ {
		classMass := (pts[i].Passing - pts[i-1].Passing) / 100
		size := math.Sqrt(pts[i].Size * pts[i-1].Size)
		frac += classMass * h.efficiency(size)
	}
	last := pts[len(pts)-1]
	frac += (100 - last.Passing) / 100 * h.efficiency(last.Size)
	return math.Max(0, math.Min(1, frac))
}

// Calculate splits the "feed" stream into overflow and underflow.
func (h *Hydrocyclone) Calculate(inputs map[string]*sim.Stream) sim.UnitResult {
	feed, ok := inputStream(inputs, PortFeed, PortIn)
	if !ok {
		return missingInput(PortFeed)
	}

	ufFrac := noPSDUnderflowFraction
	if feed.PSD != nil {
		ufFrac = h.underflowFraction(feed.PSD)
	}
	ufMass := feed.MassTPH * ufFrac
	ofMass := feed.MassTPH - ufMass

	feedWater := feed.WaterTPH()
	ufWater := 0.0
	if h.UnderflowSolidsPct > 0 && h.UnderflowSolidsPct < 100 {
		ufWater = ufMass * (100 - h.UnderflowSolidsPct) / h.UnderflowSolidsPct
	}
	ufWater = math.Min(ufWater, feedWater)
	ofWater := feedWater - ufWater

	underflow := sim.NewStream(ufMass, solidsPct(ufMass, ufWater, feed.SolidsPct), psd.FromF80(underflowSizeFactor*h.D50))
	overflow := sim.NewStream(ofMass, solidsPct(ofMass, ofWater, feed.SolidsPct), psd.FromF80(overflowSizeFactor*h.D50))

	res := sim.NewUnitResult()
	res.Outputs[PortOverflow] = overflow
	res.Outputs[PortUnderflow] = underflow
	res.KPIs["feed_tph"] = feed.MassTPH
	res.KPIs["overflow_tph"] = ofMass
	res.KPIs["underflow_tph"] = ufMass
	res.KPIs["split_to_underflow_pct"] = 100 * ufFrac
	if overflow.PSD != nil {
		res.KPIs["overflow_p80_mm"] = overflow.PSD.P80()
		res.KPIs["underflow_p80_mm"] = underflow.PSD.P80()
	}
	return res
}

// solidsPct returns the solids weight percent of mass in mass+water,
// or fallback when the stream is empty.
func solidsPct(mass, water, fallback float64) float64 {
	if mass+water <= 0 {
		return fallback
	}
	return 100 * mass / (mass + water)
}

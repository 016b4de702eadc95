package sim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Node-level KPI names read by the global aggregation.
const (
	KPIThroughput    = "throughput_tph"
	KPIF80           = "f80_mm"
	KPIF50           = "f50_mm"
	KPIP80           = "p80_mm"
	KPIP50           = "p50_mm"
	KPIP98           = "p98_mm"
	KPIPassing240    = "passing_240mesh_pct"
	KPIPower         = "power_kw"
	KPISpecificPower = "specific_energy_kwht"
)

// Global KPI names.
const (
	GlobalTotalFeed         = "total_feed_tph"
	GlobalFeedF80           = "feed_f80_mm"
	GlobalFeedF50           = "feed_f50_mm"
	GlobalTotalProduct      = "total_product_tph"
	GlobalProductP80        = "product_p80_mm"
	GlobalProductP50        = "product_p50_mm"
	GlobalProductP98        = "product_p98_mm"
	GlobalProductPassing240 = "product_passing_240mesh_pct"
	GlobalMassBalanceError  = "mass_balance_error_pct"
	GlobalTotalPower        = "total_power_kw"
	GlobalSpecificEnergy    = "specific_energy_kwht"
	GlobalReductionRatio    = "reduction_ratio"
	GlobalCirculatingLoad   = "circulating_load_pct"
)

// weighted accumulates tonnage-weighted samples of one KPI.
type weighted struct {
	values, weights []float64
}

func (w *weighted) add(v, tph float64) {
	w.values = append(w.values, v)
	w.weights = append(w.weights, tph)
}

func (w *weighted) mean() (float64, bool) {
	if len(w.values) == 0 || floats.Sum(w.weights) <= 0 {
		return 0, false
	}
	return stat.Mean(w.values, w.weights), true
}

// aggregateKPIs computes flowsheet-wide KPIs from the final pass.
// Feed F80/F50 take the first feed node that reports them rather than a
// tonnage-weighted average; product sizes are tonnage-weighted.
func aggregateKPIs(g *Graph, nodeKPIs map[string]map[string]float64, streams map[string]*Stream, recycle []GraphEdge) map[string]float64 {
	out := make(map[string]float64)

	var feedTPH []float64
	feedF80, feedF50 := 0.0, 0.0
	haveF80, haveF50 := false, false
	for _, n := range g.FeedNodes() {
		kpis := nodeKPIs[n.ID]
		if v, ok := kpis[KPIThroughput]; ok {
			feedTPH = append(feedTPH, v)
		}
		if v, ok := kpis[KPIF80]; ok && !haveF80 {
			feedF80, haveF80 = v, true
		}
		if v, ok := kpis[KPIF50]; ok && !haveF50 {
			feedF50, haveF50 = v, true
		}
	}
	totalFeed := floats.Sum(feedTPH)
	out[GlobalTotalFeed] = totalFeed
	if haveF80 {
		out[GlobalFeedF80] = feedF80
	}
	if haveF50 {
		out[GlobalFeedF50] = feedF50
	}

	var productTPH []float64
	var p80, p50, p98, fines weighted
	for _, n := range g.ProductNodes() {
		kpis := nodeKPIs[n.ID]
		tph, ok := kpis[KPIThroughput]
		if !ok {
			continue
		}
		productTPH = append(productTPH, tph)
		if v, ok := kpis[KPIP80]; ok {
			p80.add(v, tph)
		}
		if v, ok := kpis[KPIP50]; ok {
			p50.add(v, tph)
		}
		if v, ok := kpis[KPIP98]; ok {
			p98.add(v, tph)
		}
		if v, ok := kpis[KPIPassing240]; ok {
			fines.add(v, tph)
		}
	}
	totalProduct := floats.Sum(productTPH)
	out[GlobalTotalProduct] = totalProduct
	productP80, haveP80 := p80.mean()
	if haveP80 {
		out[GlobalProductP80] = productP80
	}
	if v, ok := p50.mean(); ok {
		out[GlobalProductP50] = v
	}
	if v, ok := p98.mean(); ok {
		out[GlobalProductP98] = v
	}
	if v, ok := fines.mean(); ok {
		out[GlobalProductPassing240] = v
	}

	if totalFeed != 0 {
		out[GlobalMassBalanceError] = 100 * (totalProduct - totalFeed) / totalFeed
	} else {
		out[GlobalMassBalanceError] = 0
	}

	var power []float64
	for _, n := range g.Nodes() {
		if v, ok := nodeKPIs[n.ID][KPIPower]; ok {
			power = append(power, v)
		}
	}
	totalPower := floats.Sum(power)
	out[GlobalTotalPower] = totalPower
	if totalProduct > 0 {
		out[GlobalSpecificEnergy] = totalPower / totalProduct
	}

	if haveF80 && haveP80 && productP80 > 0 {
		out[GlobalReductionRatio] = feedF80 / productP80
	}

	if totalFeed > 0 {
		recycled, positive := 0.0, false
		for _, e := range recycle {
			if s := streams[e.ID]; s != nil {
				recycled += s.MassTPH
				if s.MassTPH > 0 {
					positive = true
				}
			}
		}
		if positive {
			out[GlobalCirculatingLoad] = 100 * recycled / totalFeed
		}
	}
	return out
}

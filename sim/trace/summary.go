package trace

// TraceSummary aggregates statistics from a ConvergenceTrace.
type TraceSummary struct {
	Iterations         int
	FinalChange        float64
	PeakChange         float64
	MonotoneDecreasing bool // true if the max change never grew after pass 2
}

// Summarize computes aggregate statistics from a ConvergenceTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(ct *ConvergenceTrace) *TraceSummary {
	summary := &TraceSummary{}
	if ct == nil || len(ct.Iterations) == 0 {
		return summary
	}

	summary.Iterations = len(ct.Iterations)
	summary.FinalChange = ct.Iterations[len(ct.Iterations)-1].MaxRelativeChange
	summary.MonotoneDecreasing = true
	for i, rec := range ct.Iterations {
		if rec.MaxRelativeChange > summary.PeakChange {
			summary.PeakChange = rec.MaxRelativeChange
		}
		// Pass 1 compares against the zero placeholder, so start at pass 3.
		if i >= 2 && rec.MaxRelativeChange > ct.Iterations[i-1].MaxRelativeChange {
			summary.MonotoneDecreasing = false
		}
	}
	return summary
}

// Package trace provides per-iteration convergence recording for recycle
// flowsheets. This package has no dependencies on sim/; it stores pure data types.
package trace

// IterationRecord captures the state of the recycle solver after one pass.
type IterationRecord struct {
	Iteration         int
	MaxRelativeChange float64
	RecycleMassTPH    map[string]float64 // recycle edge id → mass flow after this pass
}

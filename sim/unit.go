package sim

import "fmt"

// UnitModel transforms the streams arriving at a node into output streams
// and KPIs. Implementations live in sim/unit and hold only their
// configuration, so a fresh instance behaves identically on every run.
type UnitModel interface {
	// Calculate runs one pass of the model. inputs is keyed by target port.
	// Domain failures are reported in UnitResult.Err, never by panicking.
	Calculate(inputs map[string]*Stream) UnitResult
}

// UnitResult is the per-node, per-pass output of a UnitModel.
type UnitResult struct {
	Outputs   map[string]*Stream // keyed by source port
	KPIs      map[string]float64
	Err       error
	Converged bool
}

// NewUnitResult returns an empty result with allocated maps.
func NewUnitResult() UnitResult {
	return UnitResult{
		Outputs:   make(map[string]*Stream),
		KPIs:      make(map[string]float64),
		Converged: true,
	}
}

// Failed returns a result carrying only err.
func Failed(err error) UnitResult {
	r := NewUnitResult()
	r.Err = err
	r.Converged = false
	return r
}

// NewUnitModelFunc is the unit model factory. It is set by sim/unit's init();
// production code imports sim/unit, tests in this package use the blank import
// in unit_import_test.go.
var NewUnitModelFunc func(node GraphNode) (UnitModel, error)

// NewUnitModel builds the model for node through the registered factory.
func NewUnitModel(node GraphNode) (UnitModel, error) {
	if NewUnitModelFunc == nil {
		return nil, fmt.Errorf("no unit model factory registered; import sim/unit")
	}
	return NewUnitModelFunc(node)
}

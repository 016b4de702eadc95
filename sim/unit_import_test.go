package sim_test

// Blank import triggers sim/unit's init(), which registers NewUnitModelFunc.
// This allows package sim's internal test files to build unit models
// without directly importing sim/unit (which would create an import cycle).
import _ "github.com/flowsheet-sim/flowsheet-sim/sim/unit"

// register.go wires sim/unit's factory into the sim package's registration
// variable (NewUnitModelFunc). This init() runs when any package imports
// sim/unit, breaking the import cycle between sim/ (interface owner) and
// sim/unit/ (implementation).
package unit

import "github.com/flowsheet-sim/flowsheet-sim/sim"

func init() {
	sim.NewUnitModelFunc = New
}

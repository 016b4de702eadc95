package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/flowsheet"
)

// validateCmd checks a flowsheet without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a flowsheet for structural problems",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		spec := loadFlowsheet(flowsheetPath)
		errs := validateFlowsheet(spec)
		if len(errs) > 0 {
			for _, err := range errs {
				fmt.Printf("ERROR: %v\n", err)
			}
			logrus.Fatalf("flowsheet %s has %d problem(s)", flowsheetPath, len(errs))
		}

		g := sim.NewGraph(spec.GraphNodes(), spec.GraphEdges())
		recycle := g.FindRecycleStreams()
		fmt.Printf("%s: OK (%d nodes, %d edges, %d recycle edge(s))\n",
			flowsheetPath, len(spec.Nodes), len(spec.Edges), len(recycle))
		for _, e := range recycle {
			fmt.Printf("  recycle: %s (%s.%s -> %s.%s)\n", e.ID, e.Source, e.SourcePort, e.Target, e.TargetPort)
		}
	},
}

// validateFlowsheet runs the description checks and, when those pass, the
// topology checks.
func validateFlowsheet(spec *flowsheet.Spec) []error {
	if errs := spec.Validate(); len(errs) > 0 {
		return errs
	}
	return sim.NewGraph(spec.GraphNodes(), spec.GraphEdges()).Validate()
}

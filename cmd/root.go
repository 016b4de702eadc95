package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/flowsheet"
	"github.com/flowsheet-sim/flowsheet-sim/sim/trace"
)

var (
	// CLI flags for the run and validate commands
	flowsheetPath string  // Path to the YAML flowsheet
	logLevel      string  // Log verbosity level
	maxIterations int     // Recycle solver pass limit (0 = file or default)
	tolerance     float64 // Recycle convergence tolerance (0 = file or default)
	traceLevel    string  // Convergence trace level
	outputPath    string  // Optional JSON summary path
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "flowsheet-sim",
	Short: "Steady-state simulator for comminution flowsheets",
}

// runCmd loads a flowsheet and runs it to a steady state
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a flowsheet simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		spec := loadFlowsheet(flowsheetPath)
		if errs := spec.Validate(); len(errs) > 0 {
			for _, err := range errs {
				logrus.Error(err)
			}
			logrus.Fatalf("flowsheet %s has %d problem(s)", flowsheetPath, len(errs))
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level %q; valid: none, iterations", traceLevel)
		}

		cfg := executorConfig(spec, maxIterations, tolerance, traceLevel)
		logrus.Infof("Running flowsheet %q: %d nodes, %d edges, max_iterations=%d, tolerance=%g",
			spec.Name, len(spec.Nodes), len(spec.Edges), cfg.MaxIterations, cfg.Tolerance)

		result := spec.NewExecutor(cfg).Execute()
		result.Print(os.Stdout)
		if result.Trace != nil {
			printTraceSummary(result.Trace)
		}

		if outputPath != "" {
			if err := writeSummary(outputPath, result); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Results written to %s", outputPath)
		}
		if !result.Success {
			logrus.Fatalf("Simulation finished with %d error(s)", len(result.Errors))
		}
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func loadFlowsheet(path string) *flowsheet.Spec {
	if path == "" {
		logrus.Fatalf("--flowsheet is required")
	}
	spec, err := flowsheet.LoadFlowsheetSpec(path)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	return spec
}

// executorConfig layers CLI overrides on top of the file's solver settings.
// Zero values leave the file setting in place.
func executorConfig(spec *flowsheet.Spec, iterations int, tol float64, level string) sim.ExecutorConfig {
	cfg := spec.ExecutorConfig()
	if iterations > 0 {
		cfg.MaxIterations = iterations
	}
	if tol > 0 {
		cfg.Tolerance = tol
	}
	if level != "" {
		cfg.Trace.Level = trace.TraceLevel(level)
	}
	return cfg
}

// writeSummary saves the serializable result as indented JSON.
func writeSummary(path string, result *sim.ExecutionResult) error {
	data, err := json.MarshalIndent(result.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}

func printTraceSummary(ct *trace.ConvergenceTrace) {
	s := trace.Summarize(ct)
	fmt.Println("--- Convergence Trace ---")
	fmt.Printf("Iterations           : %d\n", s.Iterations)
	fmt.Printf("Final change         : %.6g\n", s.FinalChange)
	fmt.Printf("Peak change          : %.6g\n", s.PeakChange)
	fmt.Printf("Monotone decreasing  : %v\n", s.MonotoneDecreasing)
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, validateCmd} {
		c.Flags().StringVar(&flowsheetPath, "flowsheet", "", "Path to the YAML flowsheet")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	}

	runCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Recycle solver pass limit (0 uses the flowsheet or default of 100)")
	runCmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Relative recycle mass change for convergence (0 uses the flowsheet or default of 0.001)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Convergence trace level (none, iterations)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "Write a JSON result summary to this path")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(psdCmd)
}

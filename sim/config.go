package sim

import "github.com/flowsheet-sim/flowsheet-sim/sim/trace"

// Solver defaults used when ExecutorConfig leaves a field unset.
const (
	DefaultMaxIterations = 100
	DefaultTolerance     = 0.001
)

// Placeholder stream seeded on every recycle edge before the first pass.
const (
	placeholderMassTPH   = 0.0
	placeholderSolidsPct = 70.0
)

// ExecutorConfig groups recycle solver and tracing parameters.
type ExecutorConfig struct {
	MaxIterations int               // upper bound on solver passes (> 0)
	Tolerance     float64           // max relative recycle mass change for convergence (> 0)
	Trace         trace.TraceConfig // convergence trace collection (default none)
}

// DefaultExecutorConfig returns the solver defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		Trace:         trace.TraceConfig{Level: trace.TraceLevelNone},
	}
}

// withDefaults fills non-positive fields from DefaultExecutorConfig.
func (c ExecutorConfig) withDefaults() ExecutorConfig {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if !(c.Tolerance > 0) {
		c.Tolerance = DefaultTolerance
	}
	if c.Trace.Level == "" {
		c.Trace.Level = trace.TraceLevelNone
	}
	return c
}

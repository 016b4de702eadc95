package trace

// TraceLevel controls the verbosity of convergence tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelIterations captures one record per solver pass.
	TraceLevelIterations TraceLevel = "iterations"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:       true,
	TraceLevelIterations: true,
	"":                   true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether records should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelIterations
}

// ConvergenceTrace collects iteration records during an iterative run.
type ConvergenceTrace struct {
	Config     TraceConfig
	Iterations []IterationRecord
}

// NewConvergenceTrace creates a ConvergenceTrace ready for recording.
func NewConvergenceTrace(config TraceConfig) *ConvergenceTrace {
	return &ConvergenceTrace{
		Config:     config,
		Iterations: make([]IterationRecord, 0),
	}
}

// RecordIteration appends an iteration record. The mass map is copied.
func (ct *ConvergenceTrace) RecordIteration(record IterationRecord) {
	mass := make(map[string]float64, len(record.RecycleMassTPH))
	for k, v := range record.RecycleMassTPH {
		mass[k] = v
	}
	record.RecycleMassTPH = mass
	ct.Iterations = append(ct.Iterations, record)
}

package sim

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/flowsheet-sim/flowsheet-sim/sim/trace"
)

// ExecutionResult is the sole output of Executor.Execute.
type ExecutionResult struct {
	Success    bool
	Streams    map[string]*Stream            // edge id → stream on that edge after the final pass
	NodeKPIs   map[string]map[string]float64 // node id → KPI name → value
	GlobalKPIs map[string]float64
	Errors     []error
	Warnings   []string
	Iterations int
	Converged  bool
	Duration   time.Duration
	Trace      *trace.ConvergenceTrace // nil unless tracing was enabled
}

func newExecutionResult() *ExecutionResult {
	return &ExecutionResult{
		Streams:    make(map[string]*Stream),
		NodeKPIs:   make(map[string]map[string]float64),
		GlobalKPIs: make(map[string]float64),
	}
}

// StreamSummary is the serializable view of one edge's stream.
type StreamSummary struct {
	MassTPH      float64      `json:"mass_tph"`
	SolidsPct    float64      `json:"solids_pct"`
	WaterTPH     float64      `json:"water_tph"`
	TotalFlowTPH float64      `json:"total_flow_tph"`
	P80MM        *float64     `json:"p80_mm,omitempty"`
	PSD          [][2]float64 `json:"psd,omitempty"` // (size mm, percent passing) pairs
}

// ResultSummary is the plain serializable form of an ExecutionResult.
type ResultSummary struct {
	Success    bool                          `json:"success"`
	Streams    map[string]StreamSummary      `json:"streams"`
	NodeKPIs   map[string]map[string]float64 `json:"node_kpis"`
	GlobalKPIs map[string]float64            `json:"global_kpis"`
	Errors     []string                      `json:"errors"`
	Warnings   []string                      `json:"warnings"`
	Iterations int                           `json:"iterations"`
	Converged  bool                          `json:"converged"`
	DurationMs float64                       `json:"duration_ms"`
}

// Summary converts the result into its serializable form.
func (r *ExecutionResult) Summary() ResultSummary {
	s := ResultSummary{
		Success:    r.Success,
		Streams:    make(map[string]StreamSummary, len(r.Streams)),
		NodeKPIs:   r.NodeKPIs,
		GlobalKPIs: r.GlobalKPIs,
		Errors:     make([]string, 0, len(r.Errors)),
		Warnings:   append([]string{}, r.Warnings...),
		Iterations: r.Iterations,
		Converged:  r.Converged,
		DurationMs: float64(r.Duration.Microseconds()) / 1000,
	}
	for _, err := range r.Errors {
		s.Errors = append(s.Errors, err.Error())
	}
	for edgeID, st := range r.Streams {
		ss := StreamSummary{
			MassTPH:      st.MassTPH,
			SolidsPct:    st.SolidsPct,
			WaterTPH:     st.WaterTPH(),
			TotalFlowTPH: st.TotalFlowTPH(),
		}
		if p80, ok := st.P80(); ok {
			ss.P80MM = &p80
			for _, p := range st.PSD.Points() {
				ss.PSD = append(ss.PSD, [2]float64{p.Size, p.Passing})
			}
		}
		s.Streams[edgeID] = ss
	}
	return s
}

// Print writes a human-readable report of the run.
func (r *ExecutionResult) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Flowsheet Results ===")
	fmt.Fprintf(w, "Success              : %v\n", r.Success)
	fmt.Fprintf(w, "Converged            : %v (%d iterations)\n", r.Converged, r.Iterations)
	fmt.Fprintf(w, "Duration             : %v\n", r.Duration)

	if len(r.GlobalKPIs) > 0 {
		fmt.Fprintln(w, "--- Global KPIs ---")
		for _, k := range sortedKeys(r.GlobalKPIs) {
			fmt.Fprintf(w, "%-28s: %.4f\n", k, r.GlobalKPIs[k])
		}
	}
	if len(r.Streams) > 0 {
		fmt.Fprintln(w, "--- Streams ---")
		ids := make([]string, 0, len(r.Streams))
		for id := range r.Streams {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			st := r.Streams[id]
			line := fmt.Sprintf("%-20s %10.2f t/h solids=%6.2f%% water=%10.2f t/h", id, st.MassTPH, st.SolidsPct, st.WaterTPH())
			if p80, ok := st.P80(); ok {
				line += fmt.Sprintf(" P80=%.4g mm", p80)
			}
			fmt.Fprintln(w, line)
		}
	}
	for _, err := range r.Errors {
		fmt.Fprintf(w, "ERROR: %v\n", err)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "WARN : %s\n", warn)
	}
}

// ErrorStrings returns the recorded errors as messages.
func (r *ExecutionResult) ErrorStrings() []string {
	out := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		out[i] = err.Error()
	}
	return out
}

// HasErrorContaining reports whether any recorded error message contains substr.
func (r *ExecutionResult) HasErrorContaining(substr string) bool {
	for _, err := range r.Errors {
		if strings.Contains(err.Error(), substr) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

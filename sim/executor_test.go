package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsheet-sim/flowsheet-sim/sim/trace"
)

// convergentCircuit is a closed ball-mill/cyclone circuit with fixed parameters.
func convergentCircuit() ([]GraphNode, []GraphEdge) {
	nodes := []GraphNode{
		{ID: "feed", Type: "feed", Params: map[string]float64{"tph": 100, "f80": 10, "solids_pct": 70}},
		{ID: "mill", Type: "ball_mill", Params: map[string]float64{"power_kw": 3000}},
		{ID: "cyclone", Type: "hydrocyclone", Params: map[string]float64{"d50": 0.075, "sharpness": 2}},
		{ID: "product", Type: "product"},
	}
	edges := []GraphEdge{
		{ID: "e_feed", Source: "feed", Target: "mill", TargetPort: "feed"},
		{ID: "e_mill", Source: "mill", Target: "cyclone", TargetPort: "feed"},
		{ID: "e_of", Source: "cyclone", Target: "product", SourcePort: "overflow"},
		{ID: "e_uf", Source: "cyclone", Target: "mill", SourcePort: "underflow", TargetPort: "feed"},
	}
	return nodes, edges
}

func TestExecute_FeedToProduct(t *testing.T) {
	// GIVEN Feed(1000 t/h, F80 150 mm) → Product
	nodes := []GraphNode{
		{ID: "feed", Type: "feed", Params: map[string]float64{"tph": 1000, "f80": 150}},
		{ID: "product", Type: "product"},
	}
	edges := []GraphEdge{{ID: "e1", Source: "feed", Target: "product"}}

	// WHEN executed
	res := NewExecutor(nodes, edges, DefaultExecutorConfig()).Execute()

	// THEN the run succeeds in one sequential pass with a closed mass balance
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.True(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 1000.0, res.GlobalKPIs[GlobalTotalFeed])
	assert.Equal(t, 1000.0, res.GlobalKPIs[GlobalTotalProduct])
	assert.InDelta(t, 0, res.GlobalKPIs[GlobalMassBalanceError], 1e-9)
	require.Contains(t, res.Streams, "e1")
	assert.Equal(t, "feed", res.Streams["e1"].SourceNode)
	assert.Equal(t, "product", res.Streams["e1"].TargetNode)
	assert.NotContains(t, res.GlobalKPIs, GlobalCirculatingLoad)
}

func TestExecute_JawCrusherCircuit(t *testing.T) {
	// GIVEN Feed(500 t/h, F80 300 mm) → jaw crusher → Product
	nodes := []GraphNode{
		{ID: "feed", Type: "feed", Params: map[string]float64{"tph": 500, "f80": 300}},
		{ID: "jaw", Type: "jaw_crusher", Params: map[string]float64{"css": 100, "reduction_ratio": 5, "capacity": 600}},
		{ID: "product", Type: "product"},
	}
	edges := []GraphEdge{
		{ID: "e1", Source: "feed", Target: "jaw"},
		{ID: "e2", Source: "jaw", Target: "product"},
	}

	res := NewExecutor(nodes, edges, DefaultExecutorConfig()).Execute()

	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, 500.0, res.GlobalKPIs[GlobalTotalProduct])
	assert.Less(t, res.GlobalKPIs[GlobalProductP80], 300.0)
	assert.Greater(t, res.GlobalKPIs[GlobalTotalPower], 0.0)
	assert.InDelta(t, 5, res.GlobalKPIs[GlobalReductionRatio], 1e-6)
	assert.InDelta(t, res.GlobalKPIs[GlobalTotalPower]/500, res.GlobalKPIs[GlobalSpecificEnergy], 1e-9)
	assert.Contains(t, res.NodeKPIs["jaw"], KPIPower)
}

func TestExecute_EmptyGraph(t *testing.T) {
	var res *ExecutionResult
	require.NotPanics(t, func() {
		res = NewExecutor(nil, nil, DefaultExecutorConfig()).Execute()
	})
	assert.False(t, res.Success)
	require.NotEmpty(t, res.Errors)
	assert.True(t, res.HasErrorContaining("no nodes"))
	assert.Equal(t, 0, res.Iterations)
	assert.Empty(t, res.NodeKPIs)
}

func TestExecute_CapacityExceededPropagates(t *testing.T) {
	// GIVEN 800 t/h into a crusher rated for 100 t/h
	nodes := []GraphNode{
		{ID: "feed", Type: "feed", Params: map[string]float64{"tph": 800}},
		{ID: "jaw", Type: "jaw_crusher", Params: map[string]float64{"capacity": 100}},
		{ID: "product", Type: "product"},
	}
	edges := []GraphEdge{
		{ID: "e1", Source: "feed", Target: "jaw"},
		{ID: "e2", Source: "jaw", Target: "product"},
	}

	res := NewExecutor(nodes, edges, DefaultExecutorConfig()).Execute()

	// THEN the crusher's error reaches the result and downstream is starved
	assert.False(t, res.Success)
	var capErr, missingErr bool
	for _, err := range res.Errors {
		capErr = capErr || errors.Is(err, ErrCapacityExceeded)
		missingErr = missingErr || errors.Is(err, ErrMissingInput)
	}
	assert.True(t, capErr, "errors: %v", res.Errors)
	assert.True(t, missingErr, "errors: %v", res.Errors)
	assert.True(t, res.HasErrorContaining(`node "jaw"`))
	assert.NotContains(t, res.Streams, "e2")
	// the feed still ran
	assert.Equal(t, 800.0, res.GlobalKPIs[GlobalTotalFeed])
}

func TestExecute_RecycleCircuitConverges(t *testing.T) {
	// GIVEN a closed grinding circuit
	nodes, edges := convergentCircuit()
	cfg := ExecutorConfig{MaxIterations: 50, Tolerance: 0.01}

	// WHEN executed
	res := NewExecutor(nodes, edges, cfg).Execute()

	// THEN it converges within the iteration budget
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.True(t, res.Converged, "warnings: %v", res.Warnings)
	assert.GreaterOrEqual(t, res.Iterations, 2)
	assert.LessOrEqual(t, res.Iterations, 50)
	assert.Empty(t, res.Warnings)

	// THEN the cyclone split closes and the circuit recirculates material
	uf := res.Streams["e_uf"]
	of := res.Streams["e_of"]
	mill := res.Streams["e_mill"]
	require.NotNil(t, uf)
	require.NotNil(t, of)
	require.NotNil(t, mill)
	assert.InEpsilon(t, mill.MassTPH, uf.MassTPH+of.MassTPH, 1e-6)
	assert.Greater(t, uf.MassTPH, 0.0)
	assert.Greater(t, res.GlobalKPIs[GlobalCirculatingLoad], 0.0)
	assert.InDelta(t, 0, res.GlobalKPIs[GlobalMassBalanceError], 2.0)
}

func TestExecute_NonConvergenceIsAWarning(t *testing.T) {
	// GIVEN an unreachable tolerance and two passes
	nodes, edges := convergentCircuit()
	cfg := ExecutorConfig{MaxIterations: 2, Tolerance: 1e-15}

	res := NewExecutor(nodes, edges, cfg).Execute()

	// THEN the last pass is returned, flagged as not converged, without errors
	assert.True(t, res.Success, "errors: %v", res.Errors)
	assert.False(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "did not converge after 2 iterations")
	assert.Contains(t, res.Streams, "e_of")
}

func TestExecute_TraceRecordsEachPass(t *testing.T) {
	nodes, edges := convergentCircuit()
	cfg := ExecutorConfig{MaxIterations: 50, Tolerance: 0.01, Trace: trace.TraceConfig{Level: trace.TraceLevelIterations}}

	res := NewExecutor(nodes, edges, cfg).Execute()

	require.NotNil(t, res.Trace)
	assert.Len(t, res.Trace.Iterations, res.Iterations)
	first := res.Trace.Iterations[0]
	assert.Equal(t, 1, first.Iteration)
	assert.Equal(t, 0.0, first.MaxRelativeChange, "pass 1 compares against zero placeholders")
	assert.Contains(t, first.RecycleMassTPH, "e_uf")
	last := res.Trace.Iterations[len(res.Trace.Iterations)-1]
	assert.Less(t, last.MaxRelativeChange, 0.01)
}

func TestExecute_TraceDisabledByDefault(t *testing.T) {
	nodes, edges := convergentCircuit()
	res := NewExecutor(nodes, edges, DefaultExecutorConfig()).Execute()
	assert.Nil(t, res.Trace)
}

func TestExecute_SamePortInputsAreBlended(t *testing.T) {
	// GIVEN two feeds landing on the same product port
	nodes := []GraphNode{
		{ID: "f1", Type: "feed", Params: map[string]float64{"tph": 300, "f80": 20}},
		{ID: "f2", Type: "feed", Params: map[string]float64{"tph": 100, "f80": 5}},
		{ID: "product", Type: "product"},
	}
	edges := []GraphEdge{
		{ID: "a", Source: "f1", Target: "product"},
		{ID: "b", Source: "f2", Target: "product"},
	}

	res := NewExecutor(nodes, edges, DefaultExecutorConfig()).Execute()

	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, 400.0, res.NodeKPIs["product"][KPIThroughput])
	assert.Equal(t, 400.0, res.GlobalKPIs[GlobalTotalFeed])
	// F80 is taken from the first feed, not averaged
	assert.Equal(t, res.NodeKPIs["f1"][KPIF80], res.GlobalKPIs[GlobalFeedF80])
	// the blended product sits between the two feeds
	p80 := res.GlobalKPIs[GlobalProductP80]
	assert.Less(t, p80, res.NodeKPIs["f1"][KPIF80])
	assert.Greater(t, p80, res.NodeKPIs["f2"][KPIF80])
}

func TestExecute_FreshClonePerOutgoingEdge(t *testing.T) {
	nodes := []GraphNode{
		{ID: "feed", Type: "feed"},
		{ID: "p1", Type: "product"},
		{ID: "p2", Type: "product"},
	}
	edges := []GraphEdge{
		{ID: "e1", Source: "feed", Target: "p1"},
		{ID: "e2", Source: "feed", Target: "p2"},
	}

	res := NewExecutor(nodes, edges, DefaultExecutorConfig()).Execute()

	require.True(t, res.Success)
	s1, s2 := res.Streams["e1"], res.Streams["e2"]
	require.NotNil(t, s1)
	require.NotNil(t, s2)
	assert.NotSame(t, s1, s2)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, "p1", s1.TargetNode)
	assert.Equal(t, "p2", s2.TargetNode)
}

func TestExecute_UnmatchedOutputPortWarns(t *testing.T) {
	// GIVEN a cyclone edge left on the default "out" port
	nodes := []GraphNode{
		{ID: "feed", Type: "feed", Params: map[string]float64{"f80": 0.2, "solids_pct": 40}},
		{ID: "cyclone", Type: "hydrocyclone"},
		{ID: "product", Type: "product"},
	}
	edges := []GraphEdge{
		{ID: "e1", Source: "feed", Target: "cyclone"},
		{ID: "e2", Source: "cyclone", Target: "product"},
	}

	res := NewExecutor(nodes, edges, DefaultExecutorConfig()).Execute()

	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], `no output for port "out"`)
	// the starved product records a missing-input error
	assert.False(t, res.Success)
}

func TestExecute_UnknownTypeIsNodeError(t *testing.T) {
	nodes := []GraphNode{
		{ID: "feed", Type: "feed"},
		{ID: "cell", Type: "flotation_cell"},
		{ID: "product", Type: "product"},
	}
	edges := []GraphEdge{
		{ID: "e1", Source: "feed", Target: "cell"},
		{ID: "e2", Source: "cell", Target: "product"},
	}

	res := NewExecutor(nodes, edges, DefaultExecutorConfig()).Execute()

	assert.False(t, res.Success)
	var unknown bool
	for _, err := range res.Errors {
		unknown = unknown || errors.Is(err, ErrUnknownUnitType)
	}
	assert.True(t, unknown, "errors: %v", res.Errors)
	// the feed still ran
	assert.Contains(t, res.NodeKPIs, "feed")
}

type panickingModel struct{}

func (panickingModel) Calculate(map[string]*Stream) UnitResult { panic("boom") }

func TestExecute_PanickingModelIsContained(t *testing.T) {
	// GIVEN a factory that returns a model which panics for one node type
	original := NewUnitModelFunc
	t.Cleanup(func() { NewUnitModelFunc = original })
	NewUnitModelFunc = func(n GraphNode) (UnitModel, error) {
		if n.Type == "explosive" {
			return panickingModel{}, nil
		}
		return original(n)
	}
	nodes := []GraphNode{
		{ID: "feed", Type: "feed"},
		{ID: "bad", Type: "explosive"},
		{ID: "p1", Type: "product"},
		{ID: "p2", Type: "product"},
	}
	edges := []GraphEdge{
		{ID: "e1", Source: "feed", Target: "bad"},
		{ID: "e2", Source: "bad", Target: "p1"},
		{ID: "e3", Source: "feed", Target: "p2"},
	}

	// WHEN executed
	var res *ExecutionResult
	require.NotPanics(t, func() {
		res = NewExecutor(nodes, edges, DefaultExecutorConfig()).Execute()
	})

	// THEN the panic becomes that node's error and healthy branches still run
	assert.False(t, res.Success)
	assert.True(t, res.HasErrorContaining(`node "bad": unexpected failure: boom`), "errors: %v", res.ErrorStrings())
	assert.Equal(t, 100.0, res.NodeKPIs["p2"][KPIThroughput])
}

func TestExecute_ErrorsDeduplicatedAcrossPasses(t *testing.T) {
	// GIVEN a recycle circuit whose crusher always rejects its feed
	nodes := []GraphNode{
		{ID: "feed", Type: "feed", Params: map[string]float64{"tph": 500}},
		{ID: "cone", Type: "cone_crusher", Params: map[string]float64{"capacity": 10}},
		{ID: "screen", Type: "vib_screen"},
		{ID: "product", Type: "product"},
	}
	edges := []GraphEdge{
		{ID: "e1", Source: "feed", Target: "cone"},
		{ID: "e2", Source: "cone", Target: "screen"},
		{ID: "e3", Source: "screen", Target: "cone", SourcePort: "oversize"},
		{ID: "e4", Source: "screen", Target: "product", SourcePort: "undersize"},
	}

	res := NewExecutor(nodes, edges, ExecutorConfig{MaxIterations: 5, Tolerance: 0.01}).Execute()

	assert.False(t, res.Success)
	count := 0
	for _, err := range res.Errors {
		if errors.Is(err, ErrCapacityExceeded) {
			count++
		}
	}
	assert.Equal(t, 1, count, "errors: %v", res.ErrorStrings())
}

func TestExecutorConfig_Defaults(t *testing.T) {
	e := NewExecutor(nil, nil, ExecutorConfig{})
	assert.Equal(t, DefaultMaxIterations, e.Config().MaxIterations)
	assert.Equal(t, DefaultTolerance, e.Config().Tolerance)
	assert.Equal(t, trace.TraceLevelNone, e.Config().Trace.Level)
}

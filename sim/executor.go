package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flowsheet-sim/flowsheet-sim/sim/trace"
)

// Executor runs one flowsheet to a steady state. Each Execute call builds
// fresh unit models and owns all of its working state, so independent
// Executors may run concurrently without coordination.
type Executor struct {
	graph  *Graph
	config ExecutorConfig
}

// NewExecutor creates an Executor over the given nodes and edges.
// Non-positive solver settings in config fall back to the defaults.
func NewExecutor(nodes []GraphNode, edges []GraphEdge, config ExecutorConfig) *Executor {
	return &Executor{
		graph:  NewGraph(nodes, edges),
		config: config.withDefaults(),
	}
}

// Graph returns the topology the executor runs over.
func (e *Executor) Graph() *Graph { return e.graph }

// Config returns the effective solver configuration.
func (e *Executor) Config() ExecutorConfig { return e.config }

// Execute validates the graph, runs every unit in topological order (iterating
// when recycle edges exist), and aggregates KPIs. It never panics: a failure
// outside the unit models aborts the run with a single top-level error.
func (e *Executor) Execute() (result *ExecutionResult) {
	start := time.Now()
	result = newExecutionResult()
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("flowsheet execution aborted: %v", r)
			result = newExecutionResult()
			result.Errors = []error{fmt.Errorf("execution failed: %v", r)}
		}
		result.Success = len(result.Errors) == 0
		result.Duration = time.Since(start)
	}()

	if errs := e.graph.Validate(); len(errs) > 0 {
		result.Errors = errs
		logrus.Warnf("flowsheet validation failed with %d error(s)", len(errs))
		return result
	}

	r := newRun(e.graph, e.config)
	r.buildModels()

	order, recycle := e.graph.TopologicalSort()
	r.order = order
	if len(recycle) == 0 {
		logrus.Debugf("running %d nodes sequentially", len(order))
		r.runSequential()
	} else {
		logrus.Debugf("running %d nodes iteratively over %d recycle edge(s)", len(order), len(recycle))
		r.runIterative(recycle)
	}

	result.Streams = r.streams
	result.NodeKPIs = r.nodeKPIs
	result.Errors = r.errs
	result.Warnings = r.warnings
	result.Iterations = r.iterations
	result.Converged = r.converged
	if r.trace != nil {
		result.Trace = r.trace
	}
	result.GlobalKPIs = aggregateKPIs(e.graph, r.nodeKPIs, r.streams, recycle)

	logrus.Infof("flowsheet run complete: %d iteration(s), converged=%v, %d error(s), %d warning(s)",
		r.iterations, r.converged, len(r.errs), len(r.warnings))
	return result
}

// run holds the mutable state of a single Execute call.
type run struct {
	graph  *Graph
	config ExecutorConfig
	order  []string
	models map[string]UnitModel

	streams  map[string]*Stream // edge id → current stream
	nodeKPIs map[string]map[string]float64

	errs     []error
	errSeen  map[string]bool
	warnings []string
	warnSeen map[string]bool

	iterations int
	converged  bool
	trace      *trace.ConvergenceTrace
}

func newRun(g *Graph, config ExecutorConfig) *run {
	r := &run{
		graph:    g,
		config:   config,
		models:   make(map[string]UnitModel, len(g.Nodes())),
		streams:  make(map[string]*Stream, len(g.Edges())),
		nodeKPIs: make(map[string]map[string]float64, len(g.Nodes())),
		errSeen:  make(map[string]bool),
		warnSeen: make(map[string]bool),
	}
	if config.Trace.Enabled() {
		r.trace = trace.NewConvergenceTrace(config.Trace)
	}
	return r
}

// buildModels instantiates one unit model per node. A node whose model
// cannot be built is reported and skipped on every pass.
func (r *run) buildModels() {
	for _, n := range r.graph.Nodes() {
		m, err := NewUnitModel(n)
		if err != nil {
			r.addError(fmt.Errorf("node %q: %w", n.ID, err))
			continue
		}
		r.models[n.ID] = m
	}
}

func (r *run) runSequential() {
	r.runPass()
	r.iterations = 1
	r.converged = true
}

func (r *run) runIterative(recycle []GraphEdge) {
	previous := make(map[string]float64, len(recycle))
	for _, e := range recycle {
		seed := NewStream(placeholderMassTPH, placeholderSolidsPct, nil)
		seed.SourceNode, seed.SourcePort = e.Source, e.SourcePort
		seed.TargetNode, seed.TargetPort = e.Target, e.TargetPort
		r.streams[e.ID] = seed
		previous[e.ID] = placeholderMassTPH
	}

	maxChange := 0.0
	for pass := 1; pass <= r.config.MaxIterations; pass++ {
		r.runPass()
		r.iterations = pass

		maxChange = 0.0
		current := make(map[string]float64, len(recycle))
		for _, e := range recycle {
			mass := 0.0
			if s := r.streams[e.ID]; s != nil {
				mass = s.MassTPH
			}
			current[e.ID] = mass
			if prev := previous[e.ID]; prev != 0 {
				maxChange = math.Max(maxChange, math.Abs(mass-prev)/math.Abs(prev))
			}
			previous[e.ID] = mass
		}
		if r.trace != nil {
			r.trace.RecordIteration(trace.IterationRecord{
				Iteration:         pass,
				MaxRelativeChange: maxChange,
				RecycleMassTPH:    current,
			})
		}
		logrus.Debugf("pass %d: max relative recycle change %.6g", pass, maxChange)

		if pass >= 2 && maxChange < r.config.Tolerance {
			r.converged = true
			return
		}
	}

	msg := fmt.Sprintf("recycle solver did not converge after %d iterations (max relative change %.6g, tolerance %.6g)",
		r.config.MaxIterations, maxChange, r.config.Tolerance)
	logrus.Warn(msg)
	r.addWarning(msg)
}

// runPass visits every node once in topological order.
func (r *run) runPass() {
	for _, id := range r.order {
		r.runNode(id)
	}
}

func (r *run) runNode(id string) {
	model, ok := r.models[id]
	if !ok {
		return
	}

	inputs := r.gatherInputs(id)
	res := calculateSafely(model, inputs)
	if res.Err != nil {
		logrus.Debugf("node %q failed: %v", id, res.Err)
		r.addError(fmt.Errorf("node %q: %w", id, res.Err))
	}
	if res.KPIs != nil {
		r.nodeKPIs[id] = res.KPIs
	} else {
		r.nodeKPIs[id] = map[string]float64{}
	}

	for _, edge := range r.graph.OutgoingEdges(id) {
		out := selectOutput(res.Outputs, edge.SourcePort)
		if out == nil {
			delete(r.streams, edge.ID)
			if res.Err == nil {
				r.addWarning(fmt.Sprintf("node %q produced no output for port %q (edge %q)", id, edge.SourcePort, edge.ID))
			}
			continue
		}
		s := out.Clone()
		s.SourceNode, s.SourcePort = edge.Source, edge.SourcePort
		s.TargetNode, s.TargetPort = edge.Target, edge.TargetPort
		r.streams[edge.ID] = s
	}
}

// gatherInputs collects one stream per target port. Streams landing on the
// same port are blended in edge input order.
func (r *run) gatherInputs(id string) map[string]*Stream {
	inputs := make(map[string]*Stream)
	for _, edge := range r.graph.IncomingEdges(id) {
		s := r.streams[edge.ID]
		if s == nil {
			continue
		}
		if existing, ok := inputs[edge.TargetPort]; ok {
			inputs[edge.TargetPort] = BlendStreams(existing, s)
			continue
		}
		inputs[edge.TargetPort] = s
	}
	return inputs
}

// selectOutput returns the output for port, or the sole output when the unit
// produced exactly one.
func selectOutput(outputs map[string]*Stream, port string) *Stream {
	if s, ok := outputs[port]; ok && s != nil {
		return s
	}
	if len(outputs) == 1 {
		for _, s := range outputs {
			return s
		}
	}
	return nil
}

// calculateSafely folds a panicking model into the node's error.
func calculateSafely(model UnitModel, inputs map[string]*Stream) (res UnitResult) {
	defer func() {
		if p := recover(); p != nil {
			res = Failed(fmt.Errorf("unexpected failure: %v", p))
		}
	}()
	return model.Calculate(inputs)
}

func (r *run) addError(err error) {
	msg := err.Error()
	if r.errSeen[msg] {
		return
	}
	r.errSeen[msg] = true
	r.errs = append(r.errs, err)
}

func (r *run) addWarning(msg string) {
	if r.warnSeen[msg] {
		return
	}
	r.warnSeen[msg] = true
	r.warnings = append(r.warnings, msg)
}

// Package flowsheet loads flowsheet descriptions from YAML and converts them
// into the nodes, edges and solver settings the engine runs on.
package flowsheet

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/unit"
)

// Spec is the on-disk form of a flowsheet.
type Spec struct {
	Version       string     `yaml:"version"`
	Name          string     `yaml:"name"`
	MaxIterations int        `yaml:"max_iterations,omitempty"`
	Tolerance     float64    `yaml:"tolerance,omitempty"`
	Nodes         []NodeSpec `yaml:"nodes"`
	Edges         []EdgeSpec `yaml:"edges"`
}

// NodeSpec describes one piece of equipment.
type NodeSpec struct {
	ID     string             `yaml:"id"`
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// EdgeSpec describes one material flow. Empty ports default to "out" / "in".
type EdgeSpec struct {
	ID         string `yaml:"id"`
	Source     string `yaml:"source"`
	Target     string `yaml:"target"`
	SourcePort string `yaml:"source_port,omitempty"`
	TargetPort string `yaml:"target_port,omitempty"`
}

// LoadFlowsheetSpec reads and strictly parses a YAML flowsheet.
// Unrecognized keys are rejected so typos surface as errors.
func LoadFlowsheetSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flowsheet: %w", err)
	}
	return ParseFlowsheetSpec(data)
}

// ParseFlowsheetSpec strictly parses a YAML flowsheet held in memory.
func ParseFlowsheetSpec(data []byte) (*Spec, error) {
	var spec Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing flowsheet: %w", err)
	}
	return &spec, nil
}

// Validate checks the description itself: ids, unit types, parameter values
// and edge endpoints. Topology checks (feeds, products, reachability) are
// left to sim.Graph.Validate. All problems are returned, in document order.
func (s *Spec) Validate() []error {
	var errs []error
	if s.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("max_iterations must be non-negative, got %d", s.MaxIterations))
	}
	if s.Tolerance < 0 || math.IsNaN(s.Tolerance) || math.IsInf(s.Tolerance, 0) {
		errs = append(errs, fmt.Errorf("tolerance must be a finite non-negative number, got %v", s.Tolerance))
	}

	nodeIDs := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		if n.ID == "" {
			errs = append(errs, fmt.Errorf("nodes[%d]: id must not be empty", i))
		} else if nodeIDs[n.ID] {
			errs = append(errs, fmt.Errorf("nodes[%d]: duplicate node id %q", i, n.ID))
		}
		nodeIDs[n.ID] = true

		if !unit.IsValidType(n.Type) {
			errs = append(errs, fmt.Errorf("node %q: %w %q; valid: %v", n.ID, sim.ErrUnknownUnitType, n.Type, unit.ValidTypes()))
		}
		for _, name := range sortedParamNames(n.Params) {
			v := n.Params[name]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				errs = append(errs, fmt.Errorf("node %q: param %q must be finite, got %v", n.ID, name, v))
			}
		}
	}

	edgeIDs := make(map[string]bool, len(s.Edges))
	for i, e := range s.Edges {
		if e.ID == "" {
			errs = append(errs, fmt.Errorf("edges[%d]: id must not be empty", i))
		} else if edgeIDs[e.ID] {
			errs = append(errs, fmt.Errorf("edges[%d]: duplicate edge id %q", i, e.ID))
		}
		edgeIDs[e.ID] = true

		if !nodeIDs[e.Source] {
			errs = append(errs, fmt.Errorf("edge %q: unknown source node %q", e.ID, e.Source))
		}
		if !nodeIDs[e.Target] {
			errs = append(errs, fmt.Errorf("edge %q: unknown target node %q", e.ID, e.Target))
		}
	}
	return errs
}

// GraphNodes converts the node descriptions. Params maps are copied.
func (s *Spec) GraphNodes() []sim.GraphNode {
	out := make([]sim.GraphNode, len(s.Nodes))
	for i, n := range s.Nodes {
		params := make(map[string]float64, len(n.Params))
		for k, v := range n.Params {
			params[k] = v
		}
		out[i] = sim.GraphNode{ID: n.ID, Type: n.Type, Params: params}
	}
	return out
}

// GraphEdges converts the edge descriptions.
func (s *Spec) GraphEdges() []sim.GraphEdge {
	out := make([]sim.GraphEdge, len(s.Edges))
	for i, e := range s.Edges {
		out[i] = sim.GraphEdge{
			ID:         e.ID,
			Source:     e.Source,
			Target:     e.Target,
			SourcePort: e.SourcePort,
			TargetPort: e.TargetPort,
		}
	}
	return out
}

// ExecutorConfig overlays the file's solver settings on the defaults.
func (s *Spec) ExecutorConfig() sim.ExecutorConfig {
	cfg := sim.DefaultExecutorConfig()
	if s.MaxIterations > 0 {
		cfg.MaxIterations = s.MaxIterations
	}
	if s.Tolerance > 0 {
		cfg.Tolerance = s.Tolerance
	}
	return cfg
}

// NewExecutor builds an executor for the flowsheet with the given config.
func (s *Spec) NewExecutor(cfg sim.ExecutorConfig) *sim.Executor {
	return sim.NewExecutor(s.GraphNodes(), s.GraphEdges(), cfg)
}

func sortedParamNames(params map[string]float64) []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

package sim

import "fmt"

// Node type tags the graph itself needs to know about.
const (
	NodeTypeFeed    = "feed"
	NodeTypeProduct = "product"
)

// Default port names applied to edges that leave them empty.
const (
	DefaultSourcePort = "out"
	DefaultTargetPort = "in"
)

// GraphNode is a piece of process equipment.
type GraphNode struct {
	ID     string
	Type   string
	Params map[string]float64
}

// Param returns the named parameter or def when it is not set.
func (n GraphNode) Param(name string, def float64) float64 {
	if v, ok := n.Params[name]; ok {
		return v
	}
	return def
}

// HasParam reports whether the named parameter is set.
func (n GraphNode) HasParam(name string) bool {
	_, ok := n.Params[name]
	return ok
}

// GraphEdge is a material flow from one node port to another.
// Edges may form cycles (recycle streams).
type GraphEdge struct {
	ID         string
	Source     string
	Target     string
	SourcePort string
	TargetPort string
}

type edgeKey struct {
	source, target string
}

// Graph holds flowsheet topology keyed by node and edge ids.
// It knows nothing about streams or unit models.
type Graph struct {
	nodes     []GraphNode
	edges     []GraphEdge
	nodeIndex map[string]int

	outgoing map[string][]int // node id -> edge indices, in edge input order
	incoming map[string][]int
	between  map[edgeKey][]int
}

// NewGraph builds adjacency for the given nodes and edges. Empty ports are
// defaulted to "out" / "in". Edges that reference unknown nodes are kept for
// Validate to report but are left out of the adjacency.
func NewGraph(nodes []GraphNode, edges []GraphEdge) *Graph {
	g := &Graph{
		nodes:     make([]GraphNode, len(nodes)),
		edges:     make([]GraphEdge, len(edges)),
		nodeIndex: make(map[string]int, len(nodes)),
		outgoing:  make(map[string][]int),
		incoming:  make(map[string][]int),
		between:   make(map[edgeKey][]int),
	}
	copy(g.nodes, nodes)
	for i, n := range g.nodes {
		if _, dup := g.nodeIndex[n.ID]; !dup {
			g.nodeIndex[n.ID] = i
		}
	}
	for i, e := range edges {
		if e.SourcePort == "" {
			e.SourcePort = DefaultSourcePort
		}
		if e.TargetPort == "" {
			e.TargetPort = DefaultTargetPort
		}
		g.edges[i] = e
		if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
			continue
		}
		g.outgoing[e.Source] = append(g.outgoing[e.Source], i)
		g.incoming[e.Target] = append(g.incoming[e.Target], i)
		key := edgeKey{e.Source, e.Target}
		g.between[key] = append(g.between[key], i)
	}
	return g
}

// Nodes returns the nodes in input order.
func (g *Graph) Nodes() []GraphNode { return g.nodes }

// Edges returns the edges in input order, with default ports filled in.
func (g *Graph) Edges() []GraphEdge { return g.edges }

// HasNode reports whether id names a node.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (GraphNode, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return GraphNode{}, false
	}
	return g.nodes[i], true
}

// OutgoingEdges returns the edges leaving id, in input order.
func (g *Graph) OutgoingEdges(id string) []GraphEdge { return g.collect(g.outgoing[id]) }

// IncomingEdges returns the edges entering id, in input order.
func (g *Graph) IncomingEdges(id string) []GraphEdge { return g.collect(g.incoming[id]) }

// EdgesBetween returns all edges from source to target.
func (g *Graph) EdgesBetween(source, target string) []GraphEdge {
	return g.collect(g.between[edgeKey{source, target}])
}

func (g *Graph) collect(idx []int) []GraphEdge {
	out := make([]GraphEdge, len(idx))
	for i, j := range idx {
		out[i] = g.edges[j]
	}
	return out
}

// FeedNodes returns nodes tagged "feed" plus any node with no incoming edges.
func (g *Graph) FeedNodes() []GraphNode {
	var out []GraphNode
	for _, n := range g.nodes {
		if n.Type == NodeTypeFeed || len(g.incoming[n.ID]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// ProductNodes returns nodes tagged "product" plus any node with no outgoing edges.
func (g *Graph) ProductNodes() []GraphNode {
	var out []GraphNode
	for _, n := range g.nodes {
		if n.Type == NodeTypeProduct || len(g.outgoing[n.ID]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// TopologicalSort orders nodes with Kahn's algorithm. Ties are broken by
// input order, so the result is deterministic. Nodes that never reach zero
// in-degree sit on a cycle: every edge touching one of them is returned as a
// recycle edge, and the unresolved nodes are appended in input order so that
// each node still gets exactly one slot per pass.
func (g *Graph) TopologicalSort() (order []string, recycle []GraphEdge) {
	inDegree := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		inDegree[n.ID] = len(g.incoming[n.ID])
	}

	queue := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	resolved := make(map[string]bool, len(g.nodes))
	order = make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if resolved[id] {
			continue
		}
		resolved[id] = true
		order = append(order, id)
		for _, ei := range g.outgoing[id] {
			target := g.edges[ei].Target
			inDegree[target]--
			if inDegree[target] == 0 {
				queue = append(queue, target)
			}
		}
	}

	if len(order) == len(g.nodeIndex) {
		return order, nil
	}

	unresolved := make(map[string]bool)
	for _, n := range g.nodes {
		if !resolved[n.ID] {
			resolved[n.ID] = true
			unresolved[n.ID] = true
			order = append(order, n.ID)
		}
	}
	for _, e := range g.edges {
		if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
			continue
		}
		if unresolved[e.Source] || unresolved[e.Target] {
			recycle = append(recycle, e)
		}
	}
	return order, recycle
}

// HasCycles reports whether any recycle edge exists.
func (g *Graph) HasCycles() bool {
	_, recycle := g.TopologicalSort()
	return len(recycle) > 0
}

// FindRecycleStreams returns the edges classified as recycle by TopologicalSort.
func (g *Graph) FindRecycleStreams() []GraphEdge {
	_, recycle := g.TopologicalSort()
	return recycle
}

// Validate returns every structural problem found; it never stops at the first.
func (g *Graph) Validate() []error {
	var errs []error
	if len(g.nodes) == 0 {
		errs = append(errs, fmt.Errorf("%w: graph has no nodes", ErrInvalidGraph))
	}
	seen := make(map[string]bool, len(g.nodes))
	for _, n := range g.nodes {
		if seen[n.ID] {
			errs = append(errs, fmt.Errorf("%w: duplicate node id %q", ErrInvalidGraph, n.ID))
		}
		seen[n.ID] = true
	}
	for _, e := range g.edges {
		if !g.HasNode(e.Source) {
			errs = append(errs, fmt.Errorf("%w: edge %q references unknown source node %q", ErrInvalidGraph, e.ID, e.Source))
		}
		if !g.HasNode(e.Target) {
			errs = append(errs, fmt.Errorf("%w: edge %q references unknown target node %q", ErrInvalidGraph, e.ID, e.Target))
		}
	}
	if len(g.nodes) == 0 {
		return errs
	}

	feeds := g.FeedNodes()
	if len(feeds) == 0 {
		errs = append(errs, fmt.Errorf("%w: graph has no feed nodes", ErrInvalidGraph))
	}
	if len(g.ProductNodes()) == 0 {
		errs = append(errs, fmt.Errorf("%w: graph has no product nodes", ErrInvalidGraph))
	}

	reached := g.reachableFrom(feeds)
	for _, n := range g.nodes {
		if len(feeds) > 0 && !reached[n.ID] {
			errs = append(errs, fmt.Errorf("%w: node %q is not reachable from any feed", ErrInvalidGraph, n.ID))
		}
	}
	return errs
}

// reachableFrom runs a forward BFS from the given start nodes.
func (g *Graph) reachableFrom(start []GraphNode) map[string]bool {
	seen := make(map[string]bool, len(g.nodes))
	queue := make([]string, 0, len(start))
	for _, n := range start {
		if !seen[n.ID] {
			seen[n.ID] = true
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, ei := range g.outgoing[id] {
			t := g.edges[ei].Target
			if !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}
	return seen
}

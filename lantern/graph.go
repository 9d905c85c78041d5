// Dependency graph: a DAG of network and CPU nodes with a single root
// and a single main-document node (C6). Cycle detection uses a
// current-path DFS with a per-node visit-state map, grounded on the teacher's
// deterministic-ordering discipline (sim/cluster/event_heap.go).

package lantern

// Graph is the DAG built by the graph builder (C7) and walked by the
// simulator (C8).
type Graph struct {
	Root            *Node
	MainDocumentNode *Node
	nodesByID       map[string]*Node
}

// NewGraph wraps an already-wired root node as a Graph, indexing every
// reachable node by id.
func NewGraph(root *Node) *Graph {
	g := &Graph{Root: root, nodesByID: make(map[string]*Node)}
	root.Traverse(func(n *Node) {
		g.nodesByID[n.ID] = n
		if n.IsMainDocument() {
			g.MainDocumentNode = n
		}
	}, (*Node).GetDependents)
	return g
}

// Nodes returns every node reachable from root, in traversal order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodesByID))
	g.Root.Traverse(func(n *Node) { nodes = append(nodes, n) }, (*Node).GetDependents)
	return nodes
}

// NodeByID looks up a node by id; returns nil if absent.
func (g *Graph) NodeByID(id string) *Node { return g.nodesByID[id] }

// CheckAcyclic runs DFS cycle detection from root. Invariant 1: the
// graph is acyclic; a cycle is a hard error.
func (g *Graph) CheckAcyclic() error {
	const (
		stateUnvisited = 0
		stateInPath    = 1
		stateDone      = 2
	)
	state := make(map[string]int, len(g.nodesByID))
	var path []*Node

	var visit func(n *Node) error
	visit = func(n *Node) error {
		switch state[n.ID] {
		case stateDone:
			return nil
		case stateInPath:
			return newError(ErrGraphCycleDetected, "builder", "cycle detected at node %s", n.ID)
		}
		state[n.ID] = stateInPath
		path = append(path, n)
		for _, next := range n.GetDependents() {
			if err := visit(next); err != nil {
				return err
			}
		}
		// Backtrack: pop n off the current path before marking done.
		path = path[:len(path)-1]
		state[n.ID] = stateDone
		return nil
	}
	return visit(g.Root)
}

// cloneMap holds the id->clone rewiring state for CloneWithRelationships.
type cloneMap map[string]*Node

// CloneWithRelationships computes the inclusion set — every node for
// which predicate holds, plus all of their ancestors (walked via
// dependencies) — clones the included nodes, and re-wires dependency
// edges restricted to the included set. Returns the clone of n, or nil
// if n was excluded. A nil predicate includes every node (used for the
// graph-isomorphism round-trip property, §8).
func (n *Node) CloneWithRelationships(predicate func(*Node) bool) *Node {
	included := make(map[string]bool)
	var include func(*Node)
	include = func(node *Node) {
		if included[node.ID] {
			return
		}
		included[node.ID] = true
		for _, dep := range node.GetDependencies() {
			include(dep)
		}
	}

	var roots []*Node
	n.Traverse(func(node *Node) {
		if predicate == nil || predicate(node) {
			roots = append(roots, node)
		}
	}, (*Node).GetDependents)
	for _, r := range roots {
		include(r)
	}
	if !included[n.ID] {
		return nil
	}

	clones := make(cloneMap)
	var makeClone func(*Node) *Node
	makeClone = func(node *Node) *Node {
		if c, ok := clones[node.ID]; ok {
			return c
		}
		var c *Node
		if node.Kind == NodeKindNetwork {
			c = NewNetworkNode(node.ID, node.Request)
		} else {
			c = NewCPUNode(node.ID, node.Task)
		}
		clones[node.ID] = c
		return c
	}

	n.Traverse(func(node *Node) {
		if !included[node.ID] {
			return
		}
		clone := makeClone(node)
		for _, dep := range node.GetDependencies() {
			if included[dep.ID] {
				clone.AddDependency(makeClone(dep))
			}
		}
	}, (*Node).GetDependents)

	return clones[n.ID]
}

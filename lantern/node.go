// Graph node: a tagged Network/CPU variant (Design Note: "use a tagged
// variant rather than inheritance"). Dependency edges are stored as two
// sides (dependents + dependencies) for O(1) traversal, grounded on
// sim/cluster/events.go's BaseEvent-embedding pattern for shared fields.

package lantern

// NodeKind tags which variant a Node carries.
type NodeKind string

const (
	NodeKindNetwork NodeKind = "network"
	NodeKindCPU     NodeKind = "cpu"
)

// Node is one vertex of the dependency graph: either a Network node
// wrapping one NetworkRequest, or a CPU node wrapping one top-level
// main-thread task and its nested children.
type Node struct {
	ID   string
	Kind NodeKind

	Request *NetworkRequest // set iff Kind == NodeKindNetwork
	Task    *CPUTask        // set iff Kind == NodeKindCPU

	dependencies []*Node // in insertion order (Design Note: deterministic iteration)
	dependents   []*Node
	depSet       map[string]bool // id set, for idempotent AddDependency
}

// CPUTask is a top-level scheduling event (duration >= 10ms) plus all
// trace events nested inside it.
type CPUTask struct {
	Event       *TraceEvent
	ChildEvents []*TraceEvent
}

// DidPerformLayout reports whether any child event was a Layout.
func (t *CPUTask) DidPerformLayout() bool {
	for _, e := range t.ChildEvents {
		if e.Name == "Layout" {
			return true
		}
	}
	return false
}

// IsEvaluateScriptFor reports whether any EvaluateScript child ran a URL
// in the given set.
func (t *CPUTask) IsEvaluateScriptFor(urls map[string]bool) bool {
	for _, e := range t.ChildEvents {
		if e.Name == "EvaluateScript" && urls[e.Data.URL] {
			return true
		}
	}
	return false
}

// NewNetworkNode wraps a NetworkRequest as a graph node.
func NewNetworkNode(id string, req *NetworkRequest) *Node {
	return &Node{ID: id, Kind: NodeKindNetwork, Request: req, depSet: make(map[string]bool)}
}

// NewCPUNode wraps a CPUTask as a graph node.
func NewCPUNode(id string, task *CPUTask) *Node {
	return &Node{ID: id, Kind: NodeKindCPU, Task: task, depSet: make(map[string]bool)}
}

// StartTimeUs returns the node's start time in microseconds.
func (n *Node) StartTimeUs() int64 {
	if n.Kind == NodeKindNetwork {
		return int64(n.Request.StartTime * 1e6)
	}
	return n.Task.Event.TS
}

// EndTimeUs returns the node's end time in microseconds.
func (n *Node) EndTimeUs() int64 {
	if n.Kind == NodeKindNetwork {
		return int64(n.Request.EndTime * 1e6)
	}
	return n.Task.Event.EndTS()
}

// HasRenderBlockingPriority delegates to the wrapped request; false for CPU nodes.
func (n *Node) HasRenderBlockingPriority() bool {
	return n.Kind == NodeKindNetwork && n.Request.HasRenderBlockingPriority()
}

// IsMainDocument reports whether this node wraps the main-document request.
func (n *Node) IsMainDocument() bool {
	return n.Kind == NodeKindNetwork && n.Request.IsMainDocument
}

// FromDiskCache delegates to the wrapped request; false for CPU nodes.
func (n *Node) FromDiskCache() bool {
	return n.Kind == NodeKindNetwork && n.Request.FromDiskCache
}

// AddDependency marks other as a prerequisite of n, idempotently, and
// adds the dual back-edge (other.dependents += n).
func (n *Node) AddDependency(other *Node) {
	if other == nil || other == n || n.depSet[other.ID] {
		return
	}
	n.depSet[other.ID] = true
	n.dependencies = append(n.dependencies, other)
	other.dependents = append(other.dependents, n)
}

// GetDependencies returns n's prerequisites in insertion order.
func (n *Node) GetDependencies() []*Node { return n.dependencies }

// GetDependents returns the nodes that depend on n, in insertion order.
func (n *Node) GetDependents() []*Node { return n.dependents }

// Traverse walks the graph reachable from n via getNext (default:
// dependents), calling visit once per node in traversal (BFS) order.
// Each node is visited at most once.
func (n *Node) Traverse(visit func(*Node), getNext func(*Node) []*Node) {
	if getNext == nil {
		getNext = (*Node).GetDependents
	}
	visited := make(map[string]bool)
	queue := []*Node{n}
	visited[n.ID] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		visit(cur)
		for _, next := range getNext(cur) {
			if !visited[next.ID] {
				visited[next.ID] = true
				queue = append(queue, next)
			}
		}
	}
}

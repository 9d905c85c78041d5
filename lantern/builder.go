// Consumes records + trace events to produce the dependency graph: wires
// initiators, redirects, and CPU<->network edges (C7). Staged
// construction (uniquify -> wire network -> extract CPU -> wire CPU ->
// attach orphans -> check acyclic) grounded on
// sim/cluster/cluster.go's NewClusterSimulator/Run staging.

package lantern

import (
	"math"
	"sort"
	"strconv"
)

// MinCPUTaskDurationUs is the minimum duration (10ms) a top-level
// scheduling event must have to become its own CPU node.
const MinCPUTaskDurationUs = 10_000

// uniquifyRequestIDs suffixes colliding request ids with ":duplicate"
// until unique. This runs before any id->node index is built, resolving
// the Design Note's two-code-path inconsistency: ids are unique before
// any lookup is constructed.
func uniquifyRequestIDs(records []*NetworkRequest) {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		id := r.RequestID
		for seen[id] {
			id += ":duplicate"
		}
		seen[id] = true
		r.RequestID = id
	}
}

// BuildGraph implements C7: builds the dependency graph from observed
// records and trace events.
func BuildGraph(records []*NetworkRequest, events []*TraceEvent) (*Graph, error) {
	if len(records) == 0 {
		return nil, newError(ErrNoDocumentRequest, "builder", "no network records provided")
	}

	uniquifyRequestIDs(records)

	// 1. Create a Network node per non-video record.
	nodesByID := make(map[string]*Node, len(records))
	nodesByURL := make(map[string][]*Node)
	var networkNodes []*Node
	for _, r := range records {
		if r.ResourceType == ResourceMedia {
			continue
		}
		n := NewNetworkNode(r.RequestID, r)
		nodesByID[r.RequestID] = n
		nodesByURL[r.URL] = append(nodesByURL[r.URL], n)
		networkNodes = append(networkNodes, n)
	}
	if len(networkNodes) == 0 {
		return nil, newError(ErrNoDocumentRequest, "builder", "no non-media network records to build a graph from")
	}

	// 2. Root = earliest-starting request; main document via C5/C7.
	sort.Slice(networkNodes, func(i, j int) bool {
		return networkNodes[i].Request.StartTime < networkNodes[j].Request.StartTime
	})
	root := networkNodes[0]

	mainDocReq := FindMainDocument(records)
	if mainDocReq == nil {
		return nil, newError(ErrNoDocumentRequest, "builder", "no Document-type request found")
	}
	if mainDocReq.Failed {
		return nil, newError(ErrFailedDocumentRequest, "builder", "main document request failed")
	}
	if mainDocReq.StatusCode >= 400 {
		return nil, newError(ErrErroredDocumentRequest, "builder", "main document returned status %d", mainDocReq.StatusCode)
	}
	mainDocReq.IsMainDocument = true

	// 3. Network initiator wiring.
	for _, n := range networkNodes {
		if n == root {
			continue
		}
		req := n.Request
		wired := false
		if req.RedirectSource != nil {
			if parent, ok := nodesByID[req.RedirectSource.RequestID]; ok {
				n.AddDependency(parent)
				wired = true
			}
		}
		if !wired && req.Initiator != nil {
			var candidateURLs []string
			if req.Initiator.Type == "script" {
				candidateURLs = req.Initiator.StackURLs
			} else if req.Initiator.URL != "" {
				candidateURLs = []string{req.Initiator.URL}
			}
			candidates := uniqueNodesForURLs(nodesByURL, candidateURLs, n.ID)
			if len(candidates) == 1 {
				n.AddDependency(candidates[0])
				wired = true
			}
		}
		if !wired {
			n.AddDependency(root)
		}
	}

	// 4. CPU node extraction: top-level events with dur >= 10ms, plus
	// all nested events with ts < task end.
	cpuNodes := extractCPUNodes(events)

	// 5. CPU wiring.
	timerInstallers := make(map[string]*Node)
	for _, cn := range cpuNodes {
		wireCPUTask(cn, nodesByURL, timerInstallers)
	}

	// 6. Attach orphaned CPU nodes to root.
	for _, cn := range cpuNodes {
		if len(cn.GetDependencies()) == 0 {
			cn.AddDependency(root)
		}
	}

	g := NewGraph(root)
	g.MainDocumentNode = nodesByID[mainDocReq.RequestID]

	// 7. Assert acyclicity.
	if err := g.CheckAcyclic(); err != nil {
		return nil, err
	}
	return g, nil
}

// uniqueNodesForURLs returns the distinct nodes (excluding selfID)
// wrapping any of the given URLs.
func uniqueNodesForURLs(byURL map[string][]*Node, urls []string, selfID string) []*Node {
	seen := make(map[string]bool)
	var out []*Node
	for _, u := range urls {
		for _, n := range byURL[u] {
			if n.ID == selfID || seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			out = append(out, n)
		}
	}
	return out
}

// extractCPUNodes walks main-thread events in order and groups every
// top-level task (dur >= MinCPUTaskDurationUs) with its nested children.
func extractCPUNodes(events []*TraceEvent) []*Node {
	var nodes []*Node
	i := 0
	for i < len(events) {
		top := events[i]
		if top.Dur < MinCPUTaskDurationUs {
			i++
			continue
		}
		taskEnd := top.EndTS()
		task := &CPUTask{Event: top}
		j := i + 1
		for j < len(events) && events[j].TS < taskEnd {
			task.ChildEvents = append(task.ChildEvents, events[j])
			j++
		}
		id := "cpu-" + top.Name + "-" + strconv.FormatInt(top.TS, 10)
		nodes = append(nodes, NewCPUNode(id, task))
		i = j
	}
	return nodes
}

// wireCPUTask applies the per-child-event wiring rules of §4.6 step 5.
func wireCPUTask(cn *Node, nodesByURL map[string][]*Node, timerInstallers map[string]*Node) {
	task := cn.Task
	dependOnURLs := func(urls []string) {
		for _, u := range urls {
			if n := bestNetworkNodeForURL(nodesByURL[u], cn); n != nil {
				cn.AddDependency(n)
			}
		}
	}
	for _, e := range task.ChildEvents {
		switch e.Name {
		case "TimerInstall":
			timerInstallers[e.Data.TimerID] = cn
			dependOnURLs(e.StackURLs())
		case "TimerFire":
			if installer, ok := timerInstallers[e.Data.TimerID]; ok {
				cn.AddDependency(installer)
			}
		case "InvalidateLayout", "ScheduleStyleRecalculation":
			dependOnURLs(e.StackURLs())
		case "EvaluateScript", "FunctionCall", "v8.compile":
			if e.Data.URL != "" {
				dependOnURLs([]string{e.Data.URL})
			}
			dependOnURLs(e.StackURLs())
		case "XHRReadyStateChange":
			if e.Data.ReadyState == 4 {
				if e.Data.URL != "" {
					dependOnURLs([]string{e.Data.URL})
				}
				dependOnURLs(e.StackURLs())
			}
		case "ParseAuthorStyleSheet":
			if e.Data.StyleSheetURL != "" {
				dependOnURLs([]string{e.Data.StyleSheetURL})
			}
		case "ResourceSendRequest":
			if e.Data.URL != "" {
				for _, n := range nodesByURL[e.Data.URL] {
					if n.Request.ResourceType == ResourceXHR && n.Request.StartTime*1e6 > float64(task.Event.TS) {
						n.AddDependency(cn)
					}
				}
			}
			dependOnURLs(e.StackURLs())
		default:
			// Unrecognized/newer event names (e.g. v8.compileModule):
			// degrade gracefully to stack-trace URLs only.
			dependOnURLs(e.StackURLs())
		}
	}
}

// bestNetworkNodeForURL implements the "dependency-on-URL rule": among
// network nodes with the URL, pick the one with the smallest positive
// (cpu.start - network.end), tolerating up to 100ms of overlap, and
// ignoring any that started after the CPU task.
func bestNetworkNodeForURL(candidates []*Node, cpu *Node) *Node {
	const toleranceUs = 100_000
	cpuStart := cpu.Task.Event.TS
	var best *Node
	bestDelta := math.Inf(1)
	for _, n := range candidates {
		if n.Request.StartTime*1e6 > float64(cpuStart) {
			continue
		}
		delta := float64(cpuStart) - n.Request.EndTime*1e6
		if delta < -toleranceUs {
			continue
		}
		if delta < bestDelta {
			bestDelta = delta
			best = n
		}
	}
	return best
}

// Builds the optimistic/pessimistic subgraphs every lantern-mode metric
// derives from the full dependency graph (§4.8), via
// lantern.Node.CloneWithRelationships. Grounded on
// sim/cluster/cluster.go's aggregateMetrics merge-many-into-one pattern
// for the two-pass (collect-then-filter) shape used below.

package metrics

import lantern "github.com/lantern-sim/lantern/lantern"

const longTaskThresholdMs = 50.0

// renderBlockingSubgraph builds the FCP/FMP-family subgraph: render-
// blocking network requests ending at or before cutoffUs, plus the CPU
// tasks that evaluated their scripts (and, if includeLayout, any CPU
// task that performed a Layout). The main-document node is always kept.
func renderBlockingSubgraph(g *lantern.Graph, cutoffUs int64, allowScriptInitiated, includeLayout bool) *lantern.Graph {
	nodes := g.Nodes()

	isIncludedNetwork := func(n *lantern.Node) bool {
		if n == g.MainDocumentNode {
			return true
		}
		if n.Kind != lantern.NodeKindNetwork {
			return false
		}
		if !allowScriptInitiated && n.Request.InitiatorType() == "script" {
			return false
		}
		if !n.HasRenderBlockingPriority() {
			return false
		}
		return n.EndTimeUs() <= cutoffUs
	}

	scriptURLs := make(map[string]bool)
	for _, n := range nodes {
		if n.Kind == lantern.NodeKindNetwork && n.Request.ResourceType == lantern.ResourceScript && isIncludedNetwork(n) {
			scriptURLs[n.Request.URL] = true
		}
	}

	predicate := func(n *lantern.Node) bool {
		if n.Kind == lantern.NodeKindNetwork {
			return isIncludedNetwork(n)
		}
		if n.Task.IsEvaluateScriptFor(scriptURLs) {
			return true
		}
		return includeLayout && n.Task.DidPerformLayout()
	}

	clone := g.Root.CloneWithRelationships(predicate)
	if clone == nil {
		return nil
	}
	return lantern.NewGraph(clone)
}

// ttiOptimisticSubgraph: CPU nodes over 20ms, plus non-image network
// nodes that are scripts or High/VeryHigh priority (§4.8 TTI).
func ttiOptimisticSubgraph(g *lantern.Graph) *lantern.Graph {
	predicate := func(n *lantern.Node) bool {
		if n.Kind == lantern.NodeKindCPU {
			return n.Task.Event.Dur > 20_000
		}
		if n.Request.ResourceType == lantern.ResourceImage {
			return false
		}
		return n.Request.ResourceType == lantern.ResourceScript || n.Request.Priority == lantern.PriorityHigh || n.Request.Priority == lantern.PriorityVeryHigh
	}
	clone := g.Root.CloneWithRelationships(predicate)
	if clone == nil {
		return nil
	}
	return lantern.NewGraph(clone)
}

// fullSubgraph clones the whole graph unfiltered (TTI/FCI pessimistic, §4.8).
func fullSubgraph(g *lantern.Graph) *lantern.Graph {
	clone := g.Root.CloneWithRelationships(nil)
	return lantern.NewGraph(clone)
}

// lastLongTaskEndMs returns the latest end time, in ms, among CPU nodes
// whose simulated duration exceeds the long-task threshold (50ms); zero
// if none qualify.
func lastLongTaskEndMs(g *lantern.Graph, result *lantern.SimulationResult) float64 {
	last := 0.0
	for _, n := range g.Nodes() {
		if n.Kind != lantern.NodeKindCPU {
			continue
		}
		t, ok := result.NodeTimings[n.ID]
		if !ok || t.DurationMs <= longTaskThresholdMs {
			continue
		}
		if t.EndTimeMs > last {
			last = t.EndTimeMs
		}
	}
	return last
}

// Discrete-event scheduler (C8): walks the dependency graph under
// throttling, driving the TCP connection pool and DNS cache to produce
// per-node start/end times and total elapsed time. Single-threaded,
// deterministic, event-driven — no real blocking or async I/O.
//
// The ready/in-progress/complete bucket-set loop is grounded on
// sim/cluster/cluster.go's shared-clock Run() loop (cluster events vs.
// instance events there; CPU-slot vs. network-pool contention here) and
// on sim/cluster/event_heap.go's deterministic tie-break discipline,
// reimplemented here as insertion-ordered sets per the Design Note on
// deterministic iteration.

package lantern

import "math"

// MaxCPUTaskDurationMs caps how long any single CPU task is modeled to run.
const MaxCPUTaskDurationMs = 10_000

// maxSimulationIterations is the hard iteration cap (§4.7, §5).
const maxSimulationIterations = 100_000

// SimulatorConfig holds the throttling parameters for one Simulate call.
type SimulatorConfig struct {
	RTTMs                  float64
	ThroughputBps          float64
	MaxConcurrentRequests  int // default 10, further capped by TCP saturation
	CPUSlowdownMultiplier  float64
	LayoutTaskMultiplier   float64 // 0 => CPUSlowdownMultiplier * 0.5
	AdditionalRTTByOrigin  map[string]float64
	ServerResponseTimeByOrigin map[string]float64

	// ForceFlexibleOrdering starts the scheduler already in
	// flexible-ordering mode (C9's optimistic-graph second pass), rather
	// than only falling back to it on starvation.
	ForceFlexibleOrdering bool
}

func (c SimulatorConfig) effectiveLayoutMultiplier() float64 {
	if c.LayoutTaskMultiplier > 0 {
		return c.LayoutTaskMultiplier
	}
	return c.CPUSlowdownMultiplier * 0.5
}

func (c SimulatorConfig) effectiveMaxConcurrent() int {
	max := c.MaxConcurrentRequests
	if max <= 0 {
		max = 10
	}
	if saturated := MaximumSaturatedConnections(c.RTTMs, c.ThroughputBps); saturated < int64(max) {
		max = int(saturated)
	}
	if max < 1 {
		max = 1
	}
	return max
}

// NodeTiming is the simulator's per-node output (§6).
type NodeTiming struct {
	StartTimeMs float64
	EndTimeMs   float64
	DurationMs  float64
}

// SimulationResult is the simulator's output: total elapsed time plus
// per-node timings keyed by node id.
type SimulationResult struct {
	TimeInMs    float64
	NodeTimings map[string]NodeTiming
}

// nodeTimingState is the simulator's mutable per-node bookkeeping.
type nodeTimingState struct {
	queuedTimeMs           *float64
	startTimeMs            *float64
	endTimeMs              *float64
	timeElapsedMs          float64
	timeElapsedOvershootMs float64
	bytesDownloaded        int64
}

// nodeSet is an insertion-ordered set of nodes (Design Note: deterministic iteration).
type nodeSet struct {
	items []*Node
	index map[string]int
}

func newNodeSet() *nodeSet { return &nodeSet{index: make(map[string]int)} }

func (s *nodeSet) add(n *Node) {
	if _, ok := s.index[n.ID]; ok {
		return
	}
	s.index[n.ID] = len(s.items)
	s.items = append(s.items, n)
}

func (s *nodeSet) remove(n *Node) {
	idx, ok := s.index[n.ID]
	if !ok {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	delete(s.index, n.ID)
	for i := idx; i < len(s.items); i++ {
		s.index[s.items[i].ID] = i
	}
}

func (s *nodeSet) contains(n *Node) bool { _, ok := s.index[n.ID]; return ok }
func (s *nodeSet) len() int              { return len(s.items) }

// Simulate runs the discrete-event scheduler over g under config,
// returning total elapsed time and per-node timings, or an error on
// cycle detection, starvation, or iteration-cap overrun.
func Simulate(g *Graph, config SimulatorConfig) (*SimulationResult, error) {
	if err := g.CheckAcyclic(); err != nil {
		return nil, err
	}

	maxConcurrent := config.effectiveMaxConcurrent()
	layoutMultiplier := config.effectiveLayoutMultiplier()

	var records []*NetworkRequest
	nodes := g.Nodes()
	for _, n := range nodes {
		if n.Kind == NodeKindNetwork {
			records = append(records, n.Request)
		}
	}
	pool := NewConnectionPool(records, config.RTTMs, config.AdditionalRTTByOrigin, config.ServerResponseTimeByOrigin, config.ThroughputBps)
	dns := NewDNSCache()

	timing := make(map[string]*nodeTimingState, len(nodes))
	for _, n := range nodes {
		timing[n.ID] = &nodeTimingState{}
	}

	notReady, ready, inProgress, complete := newNodeSet(), newNodeSet(), newNodeSet(), newNodeSet()
	for _, n := range nodes {
		notReady.add(n)
	}
	notReady.remove(g.Root)
	ready.add(g.Root)
	zero := 0.0
	timing[g.Root.ID].queuedTimeMs = &zero

	totalElapsed := 0.0
	flexibleOrdering := config.ForceFlexibleOrdering
	iterations := 0

	for ready.len() > 0 || inProgress.len() > 0 {
		iterations++
		if iterations > maxSimulationIterations {
			return nil, newError(ErrGraphDepthExceeded, "simulator", "exceeded %d iterations without converging", maxSimulationIterations)
		}

		// (a) try to start every currently-ready node, insertion order.
		readySnapshot := append([]*Node(nil), ready.items...)
		for _, n := range readySnapshot {
			if startIfPossible(n, inProgress, pool, maxConcurrent, flexibleOrdering) {
				ready.remove(n)
				inProgress.add(n)
				start := totalElapsed
				timing[n.ID].startTimeMs = &start
			}
		}

		// (b) starvation handling.
		if inProgress.len() == 0 {
			if flexibleOrdering {
				return nil, newError(ErrGraphStarved, "simulator", "no startable node at t=%.2fms", totalElapsed)
			}
			flexibleOrdering = true
			continue
		}

		// (c) redistribute throughput across connections in use.
		inProgressNetworkCount := 0
		for _, n := range inProgress.items {
			if n.Kind == NodeKindNetwork && !n.Request.FromDiskCache {
				inProgressNetworkCount++
			}
		}
		pool.SetThroughputPerConnection(config.ThroughputBps, inProgressNetworkCount)

		// (d) advance the clock by the soonest-completing node's remaining time.
		remaining := make(map[string]float64, inProgress.len())
		minTime := math.Inf(1)
		for _, n := range inProgress.items {
			r := estimateTimeRemaining(n, timing[n.ID], pool, dns, config, layoutMultiplier)
			remaining[n.ID] = r
			if r < minTime {
				minTime = r
			}
		}
		if math.IsInf(minTime, 0) || math.IsNaN(minTime) {
			return nil, newError(ErrGraphDepthExceeded, "simulator", "non-finite time advancement at t=%.2fms", totalElapsed)
		}
		totalElapsed += minTime

		// (e) advance progress on every in-progress node.
		inProgressSnapshot := append([]*Node(nil), inProgress.items...)
		for _, n := range inProgressSnapshot {
			t := timing[n.ID]
			completed := updateProgress(n, t, remaining[n.ID], minTime, pool, dns)
			if !completed {
				continue
			}
			inProgress.remove(n)
			complete.add(n)
			end := totalElapsed
			t.endTimeMs = &end

			for _, dep := range n.GetDependents() {
				if !notReady.contains(dep) {
					continue
				}
				allDone := true
				for _, d := range dep.GetDependencies() {
					if !complete.contains(d) {
						allDone = false
						break
					}
				}
				if allDone {
					notReady.remove(dep)
					ready.add(dep)
					q := totalElapsed
					timing[dep.ID].queuedTimeMs = &q
				}
			}
		}
	}

	out := make(map[string]NodeTiming, len(nodes))
	for _, n := range nodes {
		t := timing[n.ID]
		if t.startTimeMs == nil || t.endTimeMs == nil {
			continue
		}
		out[n.ID] = NodeTiming{
			StartTimeMs: *t.startTimeMs,
			EndTimeMs:   *t.endTimeMs,
			DurationMs:  *t.endTimeMs - *t.startTimeMs,
		}
	}
	return &SimulationResult{TimeInMs: totalElapsed, NodeTimings: out}, nil
}

// startIfPossible attempts to move n from ready into in-progress.
func startIfPossible(n *Node, inProgress *nodeSet, pool *ConnectionPool, maxConcurrent int, flexibleOrdering bool) bool {
	if n.Kind == NodeKindCPU {
		for _, p := range inProgress.items {
			if p.Kind == NodeKindCPU {
				return false // CPU is single-slot
			}
		}
		return true
	}

	if n.Request.FromDiskCache {
		return true
	}

	count := 0
	for _, p := range inProgress.items {
		if p.Kind == NodeKindNetwork && !p.Request.FromDiskCache {
			count++
		}
	}
	if count >= maxConcurrent {
		return false
	}
	conn := pool.Acquire(n.Request, AcquireOptions{IgnoreConnectionReused: flexibleOrdering})
	return conn != nil
}

// estimateTimeRemaining computes the time remaining before n completes,
// given its current progress.
func estimateTimeRemaining(n *Node, t *nodeTimingState, pool *ConnectionPool, dns *DNSCache, config SimulatorConfig, layoutMultiplier float64) float64 {
	if n.Kind == NodeKindCPU {
		multiplier := config.CPUSlowdownMultiplier
		if n.Task.DidPerformLayout() {
			multiplier = layoutMultiplier
		}
		total := math.Round(n.Task.durationMsValue() * multiplier)
		if total > MaxCPUTaskDurationMs {
			total = MaxCPUTaskDurationMs
		}
		return total - t.timeElapsedMs
	}

	if n.Request.FromDiskCache {
		sizeMB := float64(n.Request.TransferSize) / (1024 * 1024)
		total := 8 + 20*sizeMB
		return total - t.timeElapsedMs
	}

	conn := pool.Acquire(n.Request, AcquireOptions{})
	requestedAt := 0.0
	if t.startTimeMs != nil {
		requestedAt = *t.startTimeMs
	}
	dnsTime := dns.TimeUntilResolution(hostOf(n.Request), conn.RTTMs, DNSLookupOptions{RequestedAtMs: requestedAt, ShouldUpdateCache: true})
	remainingBytes := n.Request.TransferSize - t.bytesDownloaded
	result := conn.SimulateDownloadUntil(remainingBytes, DownloadOptions{
		TimeAlreadyElapsedMs:  t.timeElapsedMs,
		DNSResolutionTimeMs:   dnsTime,
		MaximumTimeToElapseMs: math.Inf(1),
	})
	return result.TimeElapsedMs + t.timeElapsedOvershootMs
}

// updateProgress advances n by dt (the tick's elapsed time), given the
// estimatedRemaining computed for n in the same tick. Returns true if n
// completed.
func updateProgress(n *Node, t *nodeTimingState, estimatedRemaining, dt float64, pool *ConnectionPool, dns *DNSCache) bool {
	const epsilon = 1e-6

	if n.Kind == NodeKindCPU || n.Request.FromDiskCache {
		if estimatedRemaining <= dt+epsilon {
			return true
		}
		t.timeElapsedMs += dt
		return false
	}

	conn := pool.Acquire(n.Request, AcquireOptions{})
	requestedAt := 0.0
	if t.startTimeMs != nil {
		requestedAt = *t.startTimeMs
	}
	dnsTime := dns.TimeUntilResolution(hostOf(n.Request), conn.RTTMs, DNSLookupOptions{RequestedAtMs: requestedAt, ShouldUpdateCache: false})
	remainingBytes := n.Request.TransferSize - t.bytesDownloaded
	maxTime := dt - t.timeElapsedOvershootMs
	result := conn.SimulateDownloadUntil(remainingBytes, DownloadOptions{
		TimeAlreadyElapsedMs:  t.timeElapsedMs,
		DNSResolutionTimeMs:   dnsTime,
		MaximumTimeToElapseMs: maxTime,
	})
	t.bytesDownloaded += result.BytesDownloaded

	if t.bytesDownloaded >= n.Request.TransferSize {
		conn.SetWarmed(true)
		conn.SetH2OverflowBytesDownloaded(result.ExtraBytesDownloaded)
		pool.Release(n.Request)
		return true
	}
	t.timeElapsedMs += dt
	t.timeElapsedOvershootMs = result.TimeElapsedMs - dt
	return false
}

// hostOf returns the hostname DNS would resolve for a request.
func hostOf(r *NetworkRequest) string {
	if r.ParsedURL == nil {
		return r.Origin()
	}
	return r.ParsedURL.Hostname()
}

// durationMsValue is a small accessor kept on CPUTask for readability at
// call sites above.
func (t *CPUTask) durationMsValue() float64 { return t.Event.durationMs() }

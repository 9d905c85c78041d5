// Quiet-window search, shared by First CPU Idle (lantern mode) and TTI
// (observed mode). Grounded on sim/metrics_utils.go's bucketed-scan
// style, reimplemented as a sweep line / merge-intervals pair.

package metrics

import (
	"math"
	"sort"

	lantern "github.com/lantern-sim/lantern/lantern"
)

const quietWindowMs = 5000.0
const longTaskQuietThresholdMs = 50.0

// period is a half-open time interval [Start, End), in milliseconds.
type period struct{ Start, End float64 }

// mergeIntervals merges overlapping/adjacent periods, assuming input is
// sorted by Start.
func mergeIntervals(periods []period) []period {
	if len(periods) == 0 {
		return nil
	}
	merged := []period{periods[0]}
	for _, p := range periods[1:] {
		last := &merged[len(merged)-1]
		if p.Start <= last.End {
			if p.End > last.End {
				last.End = p.End
			}
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// cpuQuietPeriods returns the gaps, over [0, traceEndMs], between long
// CPU tasks (duration >= thresholdMs), using node timings from result
// (simulated) or, if result is nil, the nodes' own observed timings.
func cpuQuietPeriods(g *lantern.Graph, result *lantern.SimulationResult, thresholdMs, traceEndMs float64) []period {
	var longTasks []period
	for _, n := range g.Nodes() {
		if n.Kind != lantern.NodeKindCPU {
			continue
		}
		var startMs, endMs float64
		if result != nil {
			t, ok := result.NodeTimings[n.ID]
			if !ok {
				continue
			}
			startMs, endMs = t.StartTimeMs, t.EndTimeMs
		} else {
			startMs, endMs = float64(n.StartTimeUs())/1000, float64(n.EndTimeUs())/1000
		}
		if endMs-startMs < thresholdMs {
			continue
		}
		longTasks = append(longTasks, period{startMs, endMs})
	}
	sort.Slice(longTasks, func(i, j int) bool { return longTasks[i].Start < longTasks[j].Start })
	merged := mergeIntervals(longTasks)

	var quiet []period
	cursor := 0.0
	for _, m := range merged {
		if m.Start > cursor {
			quiet = append(quiet, period{cursor, m.Start})
		}
		if m.End > cursor {
			cursor = m.End
		}
	}
	if traceEndMs > cursor {
		quiet = append(quiet, period{cursor, traceEndMs})
	}
	return quiet
}

// findQuietStart returns the earliest point >= fromMs that has no long
// CPU task within windowMs after it (First CPU Idle's sliding search).
func findQuietStart(quiet []period, fromMs, windowMs float64) (float64, bool) {
	for _, p := range quiet {
		start := math.Max(p.Start, fromMs)
		if start < p.End && p.End-start >= windowMs {
			return start, true
		}
	}
	return 0, false
}

// networkQuietPeriods implements §4.8's network-quiet sweep line: a
// period starts when inflight drops to <= allowed and ends when it rises
// above allowed again.
func networkQuietPeriods(records []*lantern.NetworkRequest, allowed int) []period {
	type boundary struct {
		t     float64
		delta int
	}
	var boundaries []boundary
	for _, r := range records {
		if r.IsNonNetworkProtocol() {
			continue
		}
		boundaries = append(boundaries, boundary{r.StartTime * 1000, +1})
		if r.IsFinishedOrEffectivelyFinished() {
			boundaries = append(boundaries, boundary{r.EndTime * 1000, -1})
		}
	}
	sort.Slice(boundaries, func(i, j int) bool {
		if boundaries[i].t != boundaries[j].t {
			return boundaries[i].t < boundaries[j].t
		}
		return boundaries[i].delta < boundaries[j].delta
	})

	var periods []period
	inflight := 0
	inPeriod := false
	var periodStart float64
	for _, b := range boundaries {
		before := inflight
		inflight += b.delta
		if before > allowed && inflight <= allowed {
			periodStart = b.t
			inPeriod = true
		} else if before <= allowed && inflight > allowed && inPeriod {
			periods = append(periods, period{periodStart, b.t})
			inPeriod = false
		}
	}
	return periods
}

// quietWindowOverlap implements TTI observed's two-cursor overlap search.
func quietWindowOverlap(networkPeriods, cpuPeriods []period, fromMs float64) (float64, error) {
	filter := func(ps []period) []period {
		var out []period
		for _, p := range ps {
			if p.End > fromMs+quietWindowMs && p.End-p.Start >= quietWindowMs {
				out = append(out, p)
			}
		}
		return out
	}
	netCandidates := filter(networkPeriods)
	cpuCandidates := filter(cpuPeriods)
	if len(netCandidates) == 0 {
		return 0, lantern.NewError(lantern.ErrNoTTINetworkIdlePeriod, "interactive-observed", "no network-quiet period found after FCP+5s")
	}
	if len(cpuCandidates) == 0 {
		return 0, lantern.NewError(lantern.ErrNoTTICPUIdlePeriod, "interactive-observed", "no cpu-quiet period found after FCP+5s")
	}

	i, j := 0, 0
	for i < len(cpuCandidates) && j < len(netCandidates) {
		cpu := cpuCandidates[i]
		net := netCandidates[j]
		cpuStart := math.Max(cpu.Start, fromMs)
		if cpuStart >= net.Start && cpuStart < net.End && net.End-cpuStart >= quietWindowMs {
			return cpuStart, nil
		}
		if cpu.End < net.End {
			i++
		} else {
			j++
		}
	}
	return 0, lantern.NewError(lantern.ErrNoTTINetworkIdlePeriod, "interactive-observed", "no overlapping quiet window found")
}

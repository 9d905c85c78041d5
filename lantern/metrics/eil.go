// Estimated Input Latency (§4.8): a worst-case rolling-window p90 over
// observed CPU node timings, evaluated twice with opposite-polarity FMP
// cutoffs. Uses gonum/stat.Quantile for the per-window percentile, the
// same library C5 uses for RTT summaries.

package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	lantern "github.com/lantern-sim/lantern/lantern"
)

var eilCoefficients = Coefficients{Intercept: 0, OptimisticCoef: 0.4, PessimisticCoef: 0.4}

const eilCandidateMinDurationMs = 10.0
const eilLatencyFloorMs = 16.0

type cpuInterval struct{ startMs, endMs, durationMs float64 }

func observedCPUIntervals(g *lantern.Graph) []cpuInterval {
	var out []cpuInterval
	for _, n := range g.Nodes() {
		if n.Kind != lantern.NodeKindCPU {
			continue
		}
		startMs := float64(n.StartTimeUs()) / 1000
		endMs := float64(n.EndTimeUs()) / 1000
		out = append(out, cpuInterval{startMs, endMs, endMs - startMs})
	}
	return out
}

// eilRollingWindowP90 computes the worst 90th-percentile latency over a
// 5s rolling window starting at each candidate event ending after
// cutoffMs with duration >= 10ms.
func eilRollingWindowP90(intervals []cpuInterval, cutoffMs float64) float64 {
	worst := eilLatencyFloorMs
	for _, c := range intervals {
		if c.durationMs < eilCandidateMinDurationMs || c.endMs <= cutoffMs {
			continue
		}
		windowEnd := c.startMs + quietWindowMs
		var samples []float64
		for _, t := range intervals {
			if t.startMs < windowEnd && t.endMs > c.startMs {
				samples = append(samples, math.Max(t.durationMs/2, eilLatencyFloorMs))
			}
		}
		if len(samples) == 0 {
			continue
		}
		sort.Float64s(samples)
		p90 := stat.Quantile(0.9, stat.Empirical, samples, nil)
		if p90 > worst {
			worst = p90
		}
	}
	return worst
}

func computeEIL(g *lantern.Graph, fmpOptimisticMs, fmpPessimisticMs float64) *Estimate {
	intervals := observedCPUIntervals(g)
	optimisticEstimate := eilRollingWindowP90(intervals, fmpPessimisticMs)
	pessimisticEstimate := eilRollingWindowP90(intervals, fmpOptimisticMs)

	timing := combine(eilCoefficients, optimisticEstimate, pessimisticEstimate)
	return &Estimate{
		TimingMs:            timing,
		OptimisticEstimate:  optimisticEstimate,
		PessimisticEstimate: pessimisticEstimate,
	}
}

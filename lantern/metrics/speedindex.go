// Speed Index (§4.8): optimistic estimate is supplied externally
// (speedline analysis of captured screenshots, out of scope for this
// package); pessimistic estimate is a layout-weighted projection over
// FMP's pessimistic simulation.

package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	lantern "github.com/lantern-sim/lantern/lantern"
)

var speedIndexCoefficients = Coefficients{Intercept: -250, OptimisticCoef: 1.4, PessimisticCoef: 0.65}

// layoutBasedSpeedIndex computes the weighted average of end_time over
// CPU nodes with a Layout child, weighted by max(log2(duration), 0);
// falls back to floorMs if there are no layout events. Each
// contribution's end time is clamped to floorMs.
func layoutBasedSpeedIndex(g *lantern.Graph, result *lantern.SimulationResult, floorMs float64) float64 {
	var weights, endTimes []float64
	for _, n := range g.Nodes() {
		if n.Kind != lantern.NodeKindCPU || !n.Task.DidPerformLayout() {
			continue
		}
		t, ok := result.NodeTimings[n.ID]
		if !ok {
			continue
		}
		weight := math.Max(math.Log2(math.Max(t.DurationMs, 1)), 0)
		if weight == 0 {
			continue
		}
		weights = append(weights, weight)
		endTimes = append(endTimes, math.Max(t.EndTimeMs, floorMs))
	}
	if len(weights) == 0 {
		return floorMs
	}
	weightTotal := floats.Sum(weights)
	if weightTotal == 0 {
		return floorMs
	}
	return floats.Dot(weights, endTimes) / weightTotal
}

func computeSpeedIndex(fmp *Estimate, observedSpeedIndexMs, fcpPessimisticMs float64) *Estimate {
	pessimisticEstimate := layoutBasedSpeedIndex(fmp.PessimisticGraph, fmp.PessimisticResult, fcpPessimisticMs)
	optimisticEstimate := observedSpeedIndexMs

	lanternSI := combine(speedIndexCoefficients, optimisticEstimate, pessimisticEstimate)
	timing := math.Max(lanternSI, fcpPessimisticMs)
	return &Estimate{
		TimingMs:            timing,
		OptimisticEstimate:  optimisticEstimate,
		PessimisticEstimate: pessimisticEstimate,
	}
}

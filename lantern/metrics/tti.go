// Time to Interactive (§4.8).

package metrics

import (
	"math"

	lantern "github.com/lantern-sim/lantern/lantern"
)

var ttiCoefficients = Coefficients{Intercept: 0, OptimisticCoef: 0.5, PessimisticCoef: 0.5}

func computeTTI(g *lantern.Graph, fmpTimingMs float64, config lantern.SimulatorConfig) (*Estimate, error) {
	optGraph := ttiOptimisticSubgraph(g)
	pesGraph := fullSubgraph(g)
	if optGraph == nil {
		return nil, lantern.NewError(lantern.ErrGraphStarved, "interactive", "tti optimistic subgraph is empty")
	}

	optResult, err := simulateOptimistic(optGraph, config)
	if err != nil {
		return nil, err
	}
	pesResult, err := simulatePessimistic(pesGraph, config)
	if err != nil {
		return nil, err
	}

	optEstimate := math.Max(fmpTimingMs, lastLongTaskEndMs(optGraph, optResult))
	pesEstimate := math.Max(fmpTimingMs, lastLongTaskEndMs(pesGraph, pesResult))

	lanternTTI := combine(ttiCoefficients, optEstimate, pesEstimate)
	timing := math.Max(lanternTTI, fmpTimingMs)
	return &Estimate{
		TimingMs:            timing,
		OptimisticEstimate:  optEstimate,
		PessimisticEstimate: pesEstimate,
		OptimisticGraph:     optGraph,
		PessimisticGraph:    pesGraph,
		OptimisticResult:    optResult,
		PessimisticResult:   pesResult,
	}, nil
}

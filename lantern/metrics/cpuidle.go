// First CPU Idle (§4.8): same subgraphs as TTI, projected via a
// sliding-quiet-window search from FMP instead of the last-long-task rule.

package metrics

import lantern "github.com/lantern-sim/lantern/lantern"

var firstCPUIdleCoefficients = Coefficients{Intercept: 0, OptimisticCoef: 0.5, PessimisticCoef: 0.5}

func computeFirstCPUIdle(g *lantern.Graph, fmpTimingMs float64, config lantern.SimulatorConfig) (*Estimate, error) {
	optGraph := ttiOptimisticSubgraph(g)
	pesGraph := fullSubgraph(g)
	if optGraph == nil {
		return nil, lantern.NewError(lantern.ErrGraphStarved, "first-cpu-idle", "tti optimistic subgraph is empty")
	}

	optResult, err := simulateOptimistic(optGraph, config)
	if err != nil {
		return nil, err
	}
	pesResult, err := simulatePessimistic(pesGraph, config)
	if err != nil {
		return nil, err
	}

	optQuiet := cpuQuietPeriods(optGraph, optResult, longTaskQuietThresholdMs, optResult.TimeInMs)
	optEstimate, ok := findQuietStart(optQuiet, fmpTimingMs, quietWindowMs)
	if !ok {
		return nil, lantern.NewError(lantern.ErrNoTTICPUIdlePeriod, "first-cpu-idle", "no quiet window found in optimistic graph after FMP")
	}

	pesQuiet := cpuQuietPeriods(pesGraph, pesResult, longTaskQuietThresholdMs, pesResult.TimeInMs)
	pesEstimate, ok := findQuietStart(pesQuiet, fmpTimingMs, quietWindowMs)
	if !ok {
		return nil, lantern.NewError(lantern.ErrNoTTICPUIdlePeriod, "first-cpu-idle", "no quiet window found in pessimistic graph after FMP")
	}

	timing := combine(firstCPUIdleCoefficients, optEstimate, pesEstimate)
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

// First Contentful Paint (§4.8).

package metrics

import lantern "github.com/lantern-sim/lantern/lantern"

var fcpCoefficients = Coefficients{Intercept: 0, OptimisticCoef: 0.5, PessimisticCoef: 0.5}

func computeFCP(g *lantern.Graph, trace *TraceOfTab, config lantern.SimulatorConfig) (*Estimate, error) {
	cutoffUs := trace.FirstContentfulPaintUs
	optGraph := renderBlockingSubgraph(g, cutoffUs, false, false)
	pesGraph := renderBlockingSubgraph(g, cutoffUs, true, false)
	if optGraph == nil || pesGraph == nil {
		return nil, lantern.NewError(lantern.ErrNoFirstContentfulPaint, "first-contentful-paint", "render-blocking subgraph is empty")
	}

	optResult, err := simulateOptimistic(optGraph, config)
	if err != nil {
		return nil, err
	}
	pesResult, err := simulatePessimistic(pesGraph, config)
	if err != nil {
		return nil, err
	}

	timing := combine(fcpCoefficients, optResult.TimeInMs, pesResult.TimeInMs)
	return &Estimate{
		TimingMs:            timing,
		OptimisticEstimate:  optResult.TimeInMs,
		PessimisticEstimate: pesResult.TimeInMs,
		OptimisticGraph:     optGraph,
		PessimisticGraph:    pesGraph,
		OptimisticResult:    optResult,
		PessimisticResult:   pesResult,
	}, nil
}

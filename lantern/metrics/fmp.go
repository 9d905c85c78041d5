// First Meaningful Paint (§4.8): same subgraphs as FCP, evaluated at the
// FMP timestamp, with Layout-performing CPU tasks additionally included.

package metrics

import (
	"math"

	lantern "github.com/lantern-sim/lantern/lantern"
)

var fmpCoefficients = Coefficients{Intercept: 0, OptimisticCoef: 0.5, PessimisticCoef: 0.5}

func computeFMP(g *lantern.Graph, trace *TraceOfTab, fcpTimingMs float64, config lantern.SimulatorConfig) (*Estimate, error) {
	cutoffUs := trace.FirstMeaningfulPaintUs
	optGraph := renderBlockingSubgraph(g, cutoffUs, false, true)
	pesGraph := renderBlockingSubgraph(g, cutoffUs, true, true)
	if optGraph == nil || pesGraph == nil {
		return nil, lantern.NewError(lantern.ErrNoFirstMeaningfulPaint, "first-meaningful-paint", "render-blocking subgraph is empty")
	}

	optResult, err := simulateOptimistic(optGraph, config)
	if err != nil {
		return nil, err
	}
	pesResult, err := simulatePessimistic(pesGraph, config)
	if err != nil {
		return nil, err
	}

	lanternFMP := combine(fmpCoefficients, optResult.TimeInMs, pesResult.TimeInMs)
	timing := math.Max(lanternFMP, fcpTimingMs)
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

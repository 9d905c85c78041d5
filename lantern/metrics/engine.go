// Shared lantern-mode template (§4.8): build optimistic/pessimistic
// subgraphs, simulate each (optimistic gets a second flexible-ordering
// pass), project a scalar estimate, and linearly combine. Grounded on
// sim/cluster/cluster.go's aggregateMetrics merge-many-into-one
// pattern for the combine step.

package metrics

import (
	"math"

	lantern "github.com/lantern-sim/lantern/lantern"
)

// Coefficients is one metric's {intercept, optimistic, pessimistic} triple.
type Coefficients struct {
	Intercept      float64
	OptimisticCoef float64
	PessimisticCoef float64
}

// combine applies §4.8 step 4's linear combination.
func combine(c Coefficients, optimistic, pessimistic float64) float64 {
	multiplier := 1.0
	if c.Intercept > 0 {
		multiplier = math.Min(1, optimistic/1000)
	}
	return c.Intercept*multiplier + c.OptimisticCoef*optimistic + c.PessimisticCoef*pessimistic
}

// Estimate is one metric's full result, including the subgraphs and
// simulations it derived (exposed for the diagnostic export, §12).
type Estimate struct {
	TimingMs            float64
	OptimisticEstimate  float64
	PessimisticEstimate float64
	OptimisticGraph     *lantern.Graph
	PessimisticGraph    *lantern.Graph
	OptimisticResult    *lantern.SimulationResult
	PessimisticResult   *lantern.SimulationResult
}

// buildSimConfig derives the simulator configuration shared by every
// lantern-mode metric in one Compute call. Devtools-protocol network
// throttling under-delivers against its requested RTT/throughput, so a
// devtools-recorded run is deflated by the empirical adjustment factors
// (§6) before it drives the simulator.
func buildSimConfig(settings lantern.Settings, analysis *lantern.NetworkAnalysis) lantern.SimulatorConfig {
	throttling := settings.Throttling
	if settings.ThrottlingMethod == lantern.ThrottlingDevtools {
		throttling = throttling.AdjustedForDevtools()
	}
	return lantern.SimulatorConfig{
		RTTMs:                      throttling.RTTMs,
		ThroughputBps:              throttling.ThroughputBps(),
		CPUSlowdownMultiplier:      throttling.CPUSlowdownMultiplier,
		AdditionalRTTByOrigin:      analysis.AdditionalRTTByOrigin,
		ServerResponseTimeByOrigin: analysis.ServerResponseTimeByOrigin,
	}
}

// simulateOptimistic runs the optimistic-graph simulation twice — once
// under normal ordering, once with flexible ordering forced — and keeps
// whichever finished sooner (§4.8 step 2). A failure on the flexible
// pass is tolerated (falls back to the normal result); a failure on the
// normal pass is fatal.
func simulateOptimistic(g *lantern.Graph, config lantern.SimulatorConfig) (*lantern.SimulationResult, error) {
	normal, err := lantern.Simulate(g, config)
	if err != nil {
		return nil, err
	}
	flexConfig := config
	flexConfig.ForceFlexibleOrdering = true
	flexible, ferr := lantern.Simulate(g, flexConfig)
	if ferr != nil || flexible.TimeInMs >= normal.TimeInMs {
		return normal, nil
	}
	return flexible, nil
}

// simulatePessimistic runs the pessimistic-graph simulation under normal
// ordering only.
func simulatePessimistic(g *lantern.Graph, config lantern.SimulatorConfig) (*lantern.SimulationResult, error) {
	return lantern.Simulate(g, config)
}

// Results is the full set of derived page-load metrics for one
// analyze run. A metric that failed is nil and its error is recorded in
// Errors, keyed by metric name — siblings still compute (§7 propagation
// policy).
type Results struct {
	FirstContentfulPaint *Estimate
	FirstMeaningfulPaint *Estimate
	Interactive          *Estimate
	FirstCPUIdle         *Estimate
	SpeedIndex           *Estimate
	EstimatedInputLatency *Estimate

	Errors map[string]error
}

// Input bundles everything the metric engine needs for one page load.
type Input struct {
	Graph    *lantern.Graph
	Events   []*lantern.TraceEvent
	Records  []*lantern.NetworkRequest
	Settings lantern.Settings
	Analysis *lantern.NetworkAnalysis

	// ObservedSpeedIndexMs is the speedline-derived speed index,
	// computed upstream by a screenshot-analysis gatherer (out of
	// scope for this package) and supplied as a scalar input.
	ObservedSpeedIndexMs float64
}

// Compute derives every page-load metric for one analyze run, choosing
// the lantern (simulated) or observed path per settings.ThrottlingMethod.
// "provided" means the caller already measured real conditions live, so
// metrics are read straight off the trace; "simulate" and "devtools" both
// drive the simulator, the latter with its throttling deflated to offset
// devtools-protocol network throttling's known under-delivery (§6).
func Compute(in Input) (*Results, error) {
	trace, err := ExtractTraceOfTab(in.Events)
	if err != nil {
		return nil, err
	}

	if in.Settings.ThrottlingMethod == lantern.ThrottlingProvided {
		return computeObserved(in, trace)
	}
	return computeLantern(in, trace)
}

func computeLantern(in Input, trace *TraceOfTab) (*Results, error) {
	results := &Results{Errors: make(map[string]error)}
	config := buildSimConfig(in.Settings, in.Analysis)

	fcp, err := computeFCP(in.Graph, trace, config)
	if err != nil {
		results.Errors["first-contentful-paint"] = err
	}
	results.FirstContentfulPaint = fcp

	var fmp *Estimate
	if fcp != nil {
		fmp, err = computeFMP(in.Graph, trace, fcp.TimingMs, config)
		if err != nil {
			results.Errors["first-meaningful-paint"] = err
		}
		results.FirstMeaningfulPaint = fmp
	}

	if fmp != nil {
		tti, err := computeTTI(in.Graph, fmp.TimingMs, config)
		if err != nil {
			results.Errors["interactive"] = err
		}
		results.Interactive = tti

		fci, err := computeFirstCPUIdle(in.Graph, fmp.TimingMs, config)
		if err != nil {
			results.Errors["first-cpu-idle"] = err
		}
		results.FirstCPUIdle = fci

		if fmp.OptimisticResult != nil && fmp.PessimisticResult != nil {
			results.SpeedIndex = computeSpeedIndex(fmp, in.ObservedSpeedIndexMs, fcp.PessimisticEstimate)
		}

		results.EstimatedInputLatency = computeEIL(in.Graph, fmp.OptimisticEstimate, fmp.PessimisticEstimate)
	}

	return results, nil
}

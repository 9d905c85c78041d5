// Observed (non-lantern) metrics (§4.8): when throttling_method is
// provided, the caller already measured real conditions live, so
// metrics are read directly off the observed trace instead of being
// re-derived through the simulator.

package metrics

import lantern "github.com/lantern-sim/lantern/lantern"

const networkQuietAllowedRequests = 2

func computeObserved(in Input, trace *TraceOfTab) (*Results, error) {
	results := &Results{Errors: make(map[string]error)}

	if !trace.HasFirstContentfulPaint {
		results.Errors["first-contentful-paint"] = lantern.NewError(lantern.ErrNoFirstContentfulPaint, "first-contentful-paint-observed", "no firstContentfulPaint event in trace")
	} else {
		results.FirstContentfulPaint = &Estimate{TimingMs: trace.FirstContentfulPaintMs()}
	}

	if !trace.HasFirstMeaningfulPaint {
		results.Errors["first-meaningful-paint"] = lantern.NewError(lantern.ErrNoFirstMeaningfulPaint, "first-meaningful-paint-observed", "no firstMeaningfulPaint event in trace")
	} else {
		results.FirstMeaningfulPaint = &Estimate{TimingMs: trace.FirstMeaningfulPaintMs()}
	}

	if results.FirstContentfulPaint != nil {
		fcpMs := results.FirstContentfulPaint.TimingMs
		traceEndMs := observedTraceEndMs(in.Graph, in.Records)

		netPeriods := networkQuietPeriods(in.Records, networkQuietAllowedRequests)
		cpuPeriods := cpuQuietPeriods(in.Graph, nil, longTaskQuietThresholdMs, traceEndMs)

		if ttiStart, err := quietWindowOverlap(netPeriods, cpuPeriods, fcpMs); err != nil {
			results.Errors["interactive"] = err
		} else {
			results.Interactive = &Estimate{TimingMs: ttiStart}
		}

		if fciStart, ok := findQuietStart(cpuPeriods, fcpMs, quietWindowMs); ok {
			results.FirstCPUIdle = &Estimate{TimingMs: fciStart}
		} else {
			results.Errors["first-cpu-idle"] = lantern.NewError(lantern.ErrNoTTICPUIdlePeriod, "first-cpu-idle-observed", "no cpu-quiet window found after FCP")
		}
	}

	results.SpeedIndex = &Estimate{TimingMs: in.ObservedSpeedIndexMs}

	if results.FirstMeaningfulPaint != nil {
		intervals := observedCPUIntervals(in.Graph)
		eilMs := eilRollingWindowP90(intervals, results.FirstMeaningfulPaint.TimingMs)
		results.EstimatedInputLatency = &Estimate{TimingMs: eilMs}
	}

	return results, nil
}

// observedTraceEndMs returns the latest observed end time across all
// graph nodes, in milliseconds, used as the CPU-quiet sweep's horizon.
func observedTraceEndMs(g *lantern.Graph, records []*lantern.NetworkRequest) float64 {
	end := 0.0
	for _, n := range g.Nodes() {
		if e := float64(n.EndTimeUs()) / 1000; e > end {
			end = e
		}
	}
	for _, r := range records {
		if e := r.EndTime * 1000; e > end {
			end = e
		}
	}
	return end
}

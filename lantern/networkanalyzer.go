// Estimates per-origin RTT and server response time from observed
// records via multiple fallback heuristics (C5). Percentile summaries
// use gonum/stat.Quantile rather than a hand-rolled percentile function
// (see DESIGN.md).

package lantern

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CrossOriginSummaryKey is the special per-origin summary map key that
// holds the cross-origin aggregate.
const CrossOriginSummaryKey = "__SUMMARY__"

// InitialCongestionWindowBytes bounds the "download timing" RTT sample:
// only connections that transferred more than this many bytes produce
// a usable sample (14 KiB, about InitialCongestionWindow segments).
const InitialCongestionWindowBytes = 14 * 1024

// Summary is a {min, max, avg, median} rollup of samples for one origin.
type Summary struct {
	Min    float64
	Max    float64
	Avg    float64
	Median float64
}

func summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, s := range sorted {
		sum += s
	}
	return Summary{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Avg:    sum / float64(len(sorted)),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}

// NetworkAnalysis is the estimator's combined output (§6 Outputs).
type NetworkAnalysis struct {
	RTTMs                     map[string]Summary
	AdditionalRTTByOrigin     map[string]float64
	ServerResponseTimeByOrigin map[string]float64
	ThroughputBps             float64
}

// inferConnectionReuse implements §4.4's connection-reuse inference: if
// every connection id seen has at least one record where it was fresh
// (and there are >=2 distinct ids), the records' own ConnectionReused
// flags are trusted; otherwise reuse is inferred (first per origin is
// fresh, later ones reused if an earlier-finishing record shares the
// origin or the protocol is h2).
func inferConnectionReuse(records []*NetworkRequest) map[string]bool {
	reused := make(map[string]bool, len(records))

	connIDs := make(map[string]bool)
	freshByConnID := make(map[string]bool)
	for _, r := range records {
		if r.ConnectionID == "" {
			continue
		}
		connIDs[r.ConnectionID] = true
		if !r.ConnectionReused {
			freshByConnID[r.ConnectionID] = true
		}
	}
	trustRecords := len(connIDs) >= 2
	if trustRecords {
		for id := range connIDs {
			if !freshByConnID[id] {
				trustRecords = false
				break
			}
		}
	}

	if trustRecords {
		for _, r := range records {
			reused[r.RequestID] = r.ConnectionReused
		}
		return reused
	}

	// Infer: sort by start time; first per origin is fresh.
	byOrigin := make(map[string][]*NetworkRequest)
	for _, r := range records {
		byOrigin[r.Origin()] = append(byOrigin[r.Origin()], r)
	}
	for _, reqs := range byOrigin {
		sort.Slice(reqs, func(i, j int) bool { return reqs[i].StartTime < reqs[j].StartTime })
		var earliestFinish float64 = math.Inf(1)
		for i, r := range reqs {
			if i == 0 {
				reused[r.RequestID] = false
			} else {
				reused[r.RequestID] = r.StartTime > earliestFinish || r.Protocol == "h2"
			}
			if r.EndTime < earliestFinish {
				earliestFinish = r.EndTime
			}
		}
	}
	return reused
}

// AnalyzeNetwork runs the RTT/server-response-time estimation pipeline (C5).
func AnalyzeNetwork(records []*NetworkRequest) (*NetworkAnalysis, error) {
	reused := inferConnectionReuse(records)

	rttSamplesByOrigin := make(map[string][]float64)
	addSample := func(origin string, ms float64) {
		rttSamplesByOrigin[origin] = append(rttSamplesByOrigin[origin], ms)
		rttSamplesByOrigin[CrossOriginSummaryKey] = append(rttSamplesByOrigin[CrossOriginSummaryKey], ms)
	}

	for _, r := range records {
		if reused[r.RequestID] {
			continue // fresh-connection-only heuristics below
		}
		origin := r.Origin()

		// TCP timing.
		if r.Timing != nil && r.Timing.ConnectStart > 0 && r.Timing.ConnectEnd > 0 {
			if r.Timing.SSLStart > 0 && r.Timing.SSLEnd > 0 {
				addSample(origin, r.Timing.ConnectEnd-r.Timing.SSLStart)
				addSample(origin, r.Timing.SSLStart-r.Timing.ConnectStart)
			} else {
				addSample(origin, r.Timing.ConnectEnd-r.Timing.ConnectStart)
			}
			continue
		}

		// Download timing.
		if r.TransferSize > InitialCongestionWindowBytes && r.Timing != nil && r.Timing.ReceiveHeadersEnd > 0 {
			totalMs := (r.EndTime - r.StartTime) * 1000
			sample := (totalMs - r.Timing.ReceiveHeadersEnd) / math.Log2(float64(r.TransferSize)/float64(InitialCongestionWindowBytes))
			roundTrips := estimateRoundTrips(r)
			if roundTrips <= 5 && sample > 0 {
				addSample(origin, sample)
				continue
			}
		}

		// SendStart.
		if r.Timing != nil && r.Timing.SendStart > 0 {
			divisor := 2.0
			if r.IsSecure() {
				divisor = 3.0
			}
			addSample(origin, r.Timing.SendStart/divisor)
			continue
		}

		// ReceiveHeadersEnd (TTFB split).
		if r.Timing != nil && r.Timing.ReceiveHeadersEnd > 0 {
			serverFraction := 0.4
			if r.ResourceType == ResourceDocument || r.ResourceType == ResourceXHR || r.ResourceType == ResourceFetch {
				serverFraction = 0.9
			}
			networkFraction := 1 - serverFraction
			rtCount := 2.0
			if reused[r.RequestID] {
				rtCount = 1
			} else if r.IsSecure() {
				rtCount = 3
			}
			sample := math.Max((r.Timing.ReceiveHeadersEnd*networkFraction)/rtCount, 3)
			addSample(origin, sample*0.3) // coarse estimate, deflated
		}
	}

	if len(rttSamplesByOrigin) == 0 {
		return nil, newError(ErrNoTimingInformation, "analyzer", "no RTT estimates could be produced from %d records", len(records))
	}

	summaries := make(map[string]Summary, len(rttSamplesByOrigin))
	for origin, samples := range rttSamplesByOrigin {
		summaries[origin] = summarize(samples)
	}

	crossOriginMin := summaries[CrossOriginSummaryKey].Min

	serverResponseByOrigin := make(map[string]float64)
	serverSamplesByOrigin := make(map[string][]float64)
	for _, r := range records {
		if r.Timing == nil || r.Timing.ReceiveHeadersEnd <= 0 || r.Timing.SendStart < 0 {
			continue
		}
		ttfb := r.Timing.ReceiveHeadersEnd - r.Timing.SendEnd
		originRTT := crossOriginMin
		if s, ok := summaries[r.Origin()]; ok {
			originRTT = s.Min
		}
		sample := math.Max(ttfb-originRTT, 0)
		serverSamplesByOrigin[r.Origin()] = append(serverSamplesByOrigin[r.Origin()], sample)
	}
	for origin, samples := range serverSamplesByOrigin {
		sum := 0.0
		for _, s := range samples {
			sum += s
		}
		serverResponseByOrigin[origin] = sum / float64(len(samples))
	}

	additional := make(map[string]float64, len(summaries))
	for origin, s := range summaries {
		if origin == CrossOriginSummaryKey {
			continue
		}
		additional[origin] = s.Min - crossOriginMin
	}

	return &NetworkAnalysis{
		RTTMs:                      summaries,
		AdditionalRTTByOrigin:      additional,
		ServerResponseTimeByOrigin: serverResponseByOrigin,
	}, nil
}

// estimateRoundTrips counts the plausible round trips a record's
// transfer took, for the download-timing sample's discard rule.
func estimateRoundTrips(r *NetworkRequest) int {
	bytes := float64(r.TransferSize)
	rt := 0
	delivered := float64(InitialCongestionWindowBytes)
	for delivered < bytes && rt < 64 {
		delivered *= 2
		rt++
	}
	return rt
}

// FindMainDocument returns the Document-type record with the earliest
// StartTime, or nil if none exists.
func FindMainDocument(records []*NetworkRequest) *NetworkRequest {
	var best *NetworkRequest
	for _, r := range records {
		if r.ResourceType != ResourceDocument {
			continue
		}
		if best == nil || r.StartTime < best.StartTime {
			best = r
		}
	}
	return best
}

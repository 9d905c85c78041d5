// Golden end-to-end test: replays a recorded devtools log and trace
// through the recorder, graph builder, and metrics engine, and checks
// the derived metrics against a hand-verified fixture. Grounded on
// sim/internal/testutil/golden.go's AssertFloat64Equal-driven golden
// comparison, re-pointed at page-load fixtures.
package lantern_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	lantern "github.com/lantern-sim/lantern/lantern"
	"github.com/lantern-sim/lantern/lantern/metrics"
	"github.com/lantern-sim/lantern/lantern/recorder"
	"github.com/lantern-sim/lantern/internal/testutil"
)

type rawGoldenTraceEvent struct {
	Name string `json:"name"`
	TS   int64  `json:"ts"`
	Dur  int64  `json:"dur"`
	PID  int64  `json:"pid"`
	TID  int64  `json:"tid"`
}

func loadGoldenTrace(t *testing.T, path string) []*lantern.TraceEvent {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []rawGoldenTraceEvent
	require.NoError(t, json.Unmarshal(data, &raw))

	events := make([]*lantern.TraceEvent, 0, len(raw))
	for _, r := range raw {
		events = append(events, &lantern.TraceEvent{Name: r.Name, TS: r.TS, Dur: r.Dur, PID: r.PID, TID: r.TID})
	}
	return events
}

func loadGoldenDevtoolsLog(t *testing.T, path string) []recorder.Message {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var messages []recorder.Message
	require.NoError(t, json.Unmarshal(data, &messages))
	return messages
}

func TestGoldenDataset_ObservedMode_MatchesFixture(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)

	for _, tc := range dataset.Tests {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			messages := loadGoldenDevtoolsLog(t, testutil.ResolveFixturePath(t, tc.DevtoolsLogPath))
			records, err := recorder.BuildNetworkRequests(messages)
			require.NoError(t, err)

			events := loadGoldenTrace(t, testutil.ResolveFixturePath(t, tc.TracePath))

			graph, err := lantern.BuildGraph(records, events)
			require.NoError(t, err)

			settings := lantern.Settings{
				ThrottlingMethod: lantern.ThrottlingMethod(tc.ThrottlingMethod),
				Throttling: lantern.ThrottlingConfig{
					RTTMs:                 tc.RTTMs,
					ThroughputKbps:         tc.ThroughputKbps,
					CPUSlowdownMultiplier:  tc.CPUSlowdownMultiplier,
				},
			}
			require.NoError(t, settings.Validate())

			results, err := metrics.Compute(metrics.Input{
				Graph:                graph,
				Events:               events,
				Records:              records,
				Settings:             settings,
				Analysis:             &lantern.NetworkAnalysis{},
				ObservedSpeedIndexMs: tc.ObservedSpeedIndexMs,
			})
			require.NoError(t, err)

			require.NotNil(t, results.FirstContentfulPaint)
			require.NotNil(t, results.FirstMeaningfulPaint)
			require.NotNil(t, results.Interactive)
			require.NotNil(t, results.FirstCPUIdle)
			require.NotNil(t, results.SpeedIndex)
			require.NotNil(t, results.EstimatedInputLatency)

			const relTol = 0.001
			testutil.AssertFloat64Equal(t, "first-contentful-paint", tc.Metrics.FirstContentfulPaintMs, results.FirstContentfulPaint.TimingMs, relTol)
			testutil.AssertFloat64Equal(t, "first-meaningful-paint", tc.Metrics.FirstMeaningfulPaintMs, results.FirstMeaningfulPaint.TimingMs, relTol)
			testutil.AssertFloat64Equal(t, "interactive", tc.Metrics.InteractiveMs, results.Interactive.TimingMs, relTol)
			testutil.AssertFloat64Equal(t, "first-cpu-idle", tc.Metrics.FirstCPUIdleMs, results.FirstCPUIdle.TimingMs, relTol)
			testutil.AssertFloat64Equal(t, "speed-index", tc.Metrics.SpeedIndexMs, results.SpeedIndex.TimingMs, relTol)
			testutil.AssertFloat64Equal(t, "estimated-input-latency", tc.Metrics.EstimatedInputLatencyMs, results.EstimatedInputLatency.TimingMs, relTol)
		})
	}
}

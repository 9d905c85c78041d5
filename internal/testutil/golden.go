// Package testutil provides shared test infrastructure for Lantern:
// golden dataset types and assertion helpers used across lantern/ and
// lantern/metrics/ test packages. Grounded on
// sim/internal/testutil/golden.go's GoldenDataset/AssertFloat64Equal
// shape, re-pointed at page-load fixtures instead of vLLM run configs.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one named page-load fixture: the devtools log and
// trace to replay, the throttling settings to analyze under, and the
// expected metric timings.
type GoldenTestCase struct {
	Name            string  `json:"name"`
	DevtoolsLogPath string  `json:"devtools_log_path"`
	TracePath       string  `json:"trace_path"`

	ThrottlingMethod      string  `json:"throttling_method"`
	RTTMs                 float64 `json:"rtt_ms"`
	ThroughputKbps        float64 `json:"throughput_kbps"`
	CPUSlowdownMultiplier float64 `json:"cpu_slowdown_multiplier"`

	ObservedSpeedIndexMs float64 `json:"observed_speed_index_ms"`

	Metrics GoldenMetrics `json:"metrics"`
}

// GoldenMetrics holds the expected page-load metric timings, in
// milliseconds, for one golden test case.
type GoldenMetrics struct {
	FirstContentfulPaintMs  float64 `json:"first_contentful_paint_ms"`
	FirstMeaningfulPaintMs  float64 `json:"first_meaningful_paint_ms"`
	InteractiveMs           float64 `json:"interactive_ms"`
	FirstCPUIdleMs          float64 `json:"first_cpu_idle_ms"`
	SpeedIndexMs            float64 `json:"speed_index_ms"`
	EstimatedInputLatencyMs float64 `json:"estimated_input_latency_ms"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get current file path")
	}
	// Navigate from internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// ResolveFixturePath resolves a path recorded in a GoldenTestCase (itself
// relative to testdata/) to an absolute path, using this source file's
// location the same way LoadGoldenDataset does.
func ResolveFixturePath(t *testing.T, relative string) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", relative)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

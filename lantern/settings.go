// Simulation/throttling settings, loaded from YAML the way the teacher's
// WorkloadSpec is (struct tags + Validate()), per sim/workload/spec.go.

package lantern

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ThrottlingMethod selects how metrics are derived from the observed inputs.
type ThrottlingMethod string

const (
	ThrottlingSimulate ThrottlingMethod = "simulate"
	ThrottlingDevtools ThrottlingMethod = "devtools"
	ThrottlingProvided ThrottlingMethod = "provided"
)

// Empirical deflation factors applied to devtools-protocol throttled
// values before they're fed to the simulator (§6).
const (
	DevtoolsRTTAdjustmentFactor        = 3.75
	DevtoolsThroughputAdjustmentFactor = 0.9
)

// ThrottlingConfig carries the raw throttling knobs.
type ThrottlingConfig struct {
	RTTMs                  float64 `yaml:"rtt_ms"`
	ThroughputKbps          float64 `yaml:"throughput_kbps"`
	RequestLatencyMs        float64 `yaml:"request_latency_ms"`
	DownloadThroughputKbps  float64 `yaml:"download_throughput_kbps"`
	UploadThroughputKbps    float64 `yaml:"upload_throughput_kbps"`
	CPUSlowdownMultiplier   float64 `yaml:"cpu_slowdown_multiplier"`
}

// Settings is the top-level configuration for one analysis run.
type Settings struct {
	ThrottlingMethod ThrottlingMethod `yaml:"throttling_method"`
	Throttling       ThrottlingConfig `yaml:"throttling"`

	// EmitDiagnostics is parsed from the settings file but not read by the
	// metric engine: every Estimate carries its subgraphs and simulation
	// results (with per-node timings) whatever its value.
	EmitDiagnostics bool `yaml:"emit_diagnostics,omitempty"`
}

// DefaultSettings mirrors Lighthouse's default "simulate" mobile profile.
func DefaultSettings() Settings {
	return Settings{
		ThrottlingMethod: ThrottlingSimulate,
		Throttling: ThrottlingConfig{
			RTTMs:                 150,
			ThroughputKbps:         1638.4,
			CPUSlowdownMultiplier:  4,
		},
	}
}

// Validate checks the settings are usable, mirroring
// VLLMEngineConfig.Validate()'s one-error-at-a-time style.
func (s *Settings) Validate() error {
	switch s.ThrottlingMethod {
	case ThrottlingSimulate, ThrottlingDevtools, ThrottlingProvided:
	default:
		return fmt.Errorf("throttling_method must be one of simulate|devtools|provided, got %q", s.ThrottlingMethod)
	}
	if s.ThrottlingMethod == ThrottlingSimulate || s.ThrottlingMethod == ThrottlingDevtools {
		if s.Throttling.RTTMs < 0 {
			return fmt.Errorf("throttling.rtt_ms must be >= 0, got %v", s.Throttling.RTTMs)
		}
		if s.Throttling.ThroughputKbps <= 0 {
			return fmt.Errorf("throttling.throughput_kbps must be > 0, got %v", s.Throttling.ThroughputKbps)
		}
		if s.Throttling.CPUSlowdownMultiplier <= 0 {
			return fmt.Errorf("throttling.cpu_slowdown_multiplier must be > 0, got %v", s.Throttling.CPUSlowdownMultiplier)
		}
	}
	return nil
}

// ThroughputBps converts the configured download throughput (or the
// overall throughput, when download-specific isn't set) to bits/sec.
func (s *Settings) ThroughputBps() float64 {
	return s.Throttling.ThroughputBps()
}

// ThroughputBps is ThroughputBps's underlying conversion on the raw
// throttling knobs, usable directly on an already-adjusted config copy.
func (t ThrottlingConfig) ThroughputBps() float64 {
	kbps := t.DownloadThroughputKbps
	if kbps <= 0 {
		kbps = t.ThroughputKbps
	}
	return kbps * 1000
}

// LoadSettings reads and validates a YAML settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return &s, nil
}

// AdjustedForDevtools returns a copy of the throttling config with the
// devtools deflation factors applied (§6).
func (t ThrottlingConfig) AdjustedForDevtools() ThrottlingConfig {
	adjusted := t
	adjusted.RTTMs = t.RTTMs / DevtoolsRTTAdjustmentFactor
	adjusted.ThroughputKbps = t.ThroughputKbps / DevtoolsThroughputAdjustmentFactor
	return adjusted
}

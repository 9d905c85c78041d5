package lantern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings_IsSimulateModeAndValid(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, ThrottlingSimulate, s.ThrottlingMethod)
	assert.NoError(t, s.Validate())
}

func TestSettings_Validate_RejectsUnknownThrottlingMethod(t *testing.T) {
	s := Settings{ThrottlingMethod: "bogus"}
	assert.Error(t, s.Validate())
}

func TestSettings_Validate_RejectsNonPositiveThroughput(t *testing.T) {
	s := DefaultSettings()
	s.Throttling.ThroughputKbps = 0
	assert.Error(t, s.Validate())
}

func TestSettings_Validate_RejectsNonPositiveCPUSlowdown(t *testing.T) {
	s := DefaultSettings()
	s.Throttling.CPUSlowdownMultiplier = 0
	assert.Error(t, s.Validate())
}

func TestSettings_ThroughputBps_PrefersDownloadSpecific(t *testing.T) {
	s := DefaultSettings()
	s.Throttling.ThroughputKbps = 1000
	s.Throttling.DownloadThroughputKbps = 500
	assert.Equal(t, 500*1000.0, s.ThroughputBps())
}

func TestSettings_ThroughputBps_FallsBackToOverall(t *testing.T) {
	s := DefaultSettings()
	s.Throttling.ThroughputKbps = 1000
	s.Throttling.DownloadThroughputKbps = 0
	assert.Equal(t, 1000*1000.0, s.ThroughputBps())
}

func TestThrottlingConfig_AdjustedForDevtools(t *testing.T) {
	c := ThrottlingConfig{RTTMs: 150, ThroughputKbps: 1000}
	adjusted := c.AdjustedForDevtools()
	assert.InDelta(t, 150/DevtoolsRTTAdjustmentFactor, adjusted.RTTMs, 1e-9)
	assert.InDelta(t, 1000/DevtoolsThroughputAdjustmentFactor, adjusted.ThroughputKbps, 1e-9)
}

func TestLoadSettings_MissingFile_Errors(t *testing.T) {
	_, err := LoadSettings("/nonexistent/path/settings.yaml")
	require.Error(t, err)
}

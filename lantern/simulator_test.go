package lantern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeSet_AddRemove_PreservesInsertionOrder(t *testing.T) {
	a := NewNetworkNode("a", &NetworkRequest{RequestID: "a"})
	b := NewNetworkNode("b", &NetworkRequest{RequestID: "b"})
	c := NewNetworkNode("c", &NetworkRequest{RequestID: "c"})

	s := newNodeSet()
	s.add(a)
	s.add(b)
	s.add(c)
	assert.Equal(t, 3, s.len())

	s.remove(b)
	assert.Equal(t, 2, s.len())
	assert.False(t, s.contains(b))
	require.Len(t, s.items, 2)
	assert.Equal(t, "a", s.items[0].ID)
	assert.Equal(t, "c", s.items[1].ID)
}

func TestNodeSet_Add_IsIdempotent(t *testing.T) {
	a := NewNetworkNode("a", &NetworkRequest{RequestID: "a"})
	s := newNodeSet()
	s.add(a)
	s.add(a)
	assert.Equal(t, 1, s.len())
}

func TestHostOf_UsesParsedURLHostname(t *testing.T) {
	r := &NetworkRequest{ParsedURL: mustURL(t, "https://example.com:8080/x")}
	assert.Equal(t, "example.com", hostOf(r))
}

func TestHostOf_FallsBackToOriginWhenUnparsed(t *testing.T) {
	r := &NetworkRequest{}
	assert.Equal(t, "", hostOf(r))
}

func TestSimulatorConfig_EffectiveLayoutMultiplier_DefaultsToHalfCPUSlowdown(t *testing.T) {
	c := SimulatorConfig{CPUSlowdownMultiplier: 4}
	assert.Equal(t, 2.0, c.effectiveLayoutMultiplier())
}

func TestSimulatorConfig_EffectiveLayoutMultiplier_UsesExplicitValue(t *testing.T) {
	c := SimulatorConfig{CPUSlowdownMultiplier: 4, LayoutTaskMultiplier: 1.5}
	assert.Equal(t, 1.5, c.effectiveLayoutMultiplier())
}

func TestSimulatorConfig_EffectiveMaxConcurrent_DefaultsToTen(t *testing.T) {
	c := SimulatorConfig{RTTMs: 0, ThroughputBps: 0}
	assert.Equal(t, 10, c.effectiveMaxConcurrent())
}

func TestSimulatorConfig_EffectiveMaxConcurrent_CapsAtSaturation(t *testing.T) {
	c := SimulatorConfig{MaxConcurrentRequests: 100, RTTMs: 1000, ThroughputBps: 1}
	assert.Equal(t, 1, c.effectiveMaxConcurrent())
}

func TestSimulate_SingleCPUTask_CompletesAfterSlowdownAdjustedDuration(t *testing.T) {
	event := &TraceEvent{Name: "RunTask", TS: 0, Dur: 10_000} // 10ms
	root := NewCPUNode("root", &CPUTask{Event: event})
	g := NewGraph(root)

	result, err := Simulate(g, SimulatorConfig{CPUSlowdownMultiplier: 4})
	require.NoError(t, err)
	assert.Equal(t, 40.0, result.TimeInMs) // 10ms * 4x slowdown
	timing, ok := result.NodeTimings["root"]
	require.True(t, ok)
	assert.Equal(t, 0.0, timing.StartTimeMs)
	assert.Equal(t, 40.0, timing.EndTimeMs)
}

func TestSimulate_TwoIndependentCPUTasks_RunSequentially(t *testing.T) {
	// CPU is single-slot: a and b both become ready when the 10ms root
	// finishes, and the second must wait for the first to finish even
	// though neither depends on the other.
	root := NewCPUNode("root", &CPUTask{Event: &TraceEvent{Dur: 10_000}})
	a := NewCPUNode("a", &CPUTask{Event: &TraceEvent{Dur: 10_000}})
	b := NewCPUNode("b", &CPUTask{Event: &TraceEvent{Dur: 10_000}})
	a.AddDependency(root)
	b.AddDependency(root)
	g := NewGraph(root)

	result, err := Simulate(g, SimulatorConfig{CPUSlowdownMultiplier: 1})
	require.NoError(t, err)
	assert.Equal(t, 30.0, result.TimeInMs) // root 0-10, a 10-20, b 20-30
}

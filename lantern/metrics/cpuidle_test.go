package metrics

import (
	"testing"

	lantern "github.com/lantern-sim/lantern/lantern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFirstCPUIdle_EmptyOptimisticSubgraph_ReturnsGraphStarvedError(t *testing.T) {
	root := lantern.NewCPUNode("root", &lantern.CPUTask{Event: &lantern.TraceEvent{Name: "RunTask", Dur: 5_000}})
	g := lantern.NewGraph(root)

	_, err := computeFirstCPUIdle(g, 0, lantern.SimulatorConfig{})
	require.Error(t, err)
	lerr, ok := err.(*lantern.Error)
	require.True(t, ok)
	assert.Equal(t, lantern.ErrGraphStarved, lerr.Code)
}

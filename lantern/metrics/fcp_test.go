package metrics

import (
	"testing"

	lantern "github.com/lantern-sim/lantern/lantern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFCP_EmptySubgraph_ReturnsNoFirstContentfulPaintError(t *testing.T) {
	// A CPU-only root with no MainDocumentNode, no evaluated script, and
	// no layout: nothing in renderBlockingSubgraph's predicate matches.
	root := lantern.NewCPUNode("root", &lantern.CPUTask{Event: &lantern.TraceEvent{Name: "RunTask", Dur: 1_000}})
	g := lantern.NewGraph(root)

	trace := &TraceOfTab{FirstContentfulPaintUs: 1 << 62}
	_, err := computeFCP(g, trace, lantern.SimulatorConfig{})
	require.Error(t, err)
	lerr, ok := err.(*lantern.Error)
	require.True(t, ok)
	assert.Equal(t, lantern.ErrNoFirstContentfulPaint, lerr.Code)
}

package metrics

import (
	"net/url"
	"testing"

	lantern "github.com/lantern-sim/lantern/lantern"
	"github.com/stretchr/testify/require"
)

type taskSpec struct {
	startMs, endMs float64
}

// buildCPUOnlyGraph wires each spec as a CPU node; all but the first
// depend on the first so every node is reachable from the graph root.
func buildCPUOnlyGraph(t *testing.T, specs []taskSpec) *lantern.Graph {
	t.Helper()
	require.NotEmpty(t, specs)

	makeNode := func(i int, s taskSpec) *lantern.Node {
		event := &lantern.TraceEvent{
			Name: "Task",
			TS:   int64(s.startMs * 1000),
			Dur:  int64((s.endMs - s.startMs) * 1000),
		}
		return lantern.NewCPUNode(nodeID(i), &lantern.CPUTask{Event: event})
	}

	root := makeNode(0, specs[0])
	for i, s := range specs[1:] {
		n := makeNode(i+1, s)
		n.AddDependency(root)
	}
	return lantern.NewGraph(root)
}

func nodeID(i int) string {
	return "cpu-" + string(rune('a'+i))
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

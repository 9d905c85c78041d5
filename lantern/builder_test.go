package lantern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraph_NoRecords_Errors(t *testing.T) {
	_, err := BuildGraph(nil, nil)
	require.Error(t, err)
	assert.Equal(t, ErrNoDocumentRequest, err.(*Error).Code)
}

func TestBuildGraph_NoDocumentRecord_Errors(t *testing.T) {
	records := []*NetworkRequest{
		{RequestID: "1", URL: "https://example.com/a.js", ResourceType: ResourceScript, ParsedURL: mustURL(t, "https://example.com/a.js")},
	}
	_, err := BuildGraph(records, nil)
	require.Error(t, err)
	assert.Equal(t, ErrNoDocumentRequest, err.(*Error).Code)
}

func TestBuildGraph_FailedDocument_Errors(t *testing.T) {
	records := []*NetworkRequest{
		{RequestID: "doc", URL: "https://example.com/", ResourceType: ResourceDocument, Failed: true, ParsedURL: mustURL(t, "https://example.com/")},
	}
	_, err := BuildGraph(records, nil)
	require.Error(t, err)
	assert.Equal(t, ErrFailedDocumentRequest, err.(*Error).Code)
}

func TestBuildGraph_ErroredDocumentStatus_Errors(t *testing.T) {
	records := []*NetworkRequest{
		{RequestID: "doc", URL: "https://example.com/", ResourceType: ResourceDocument, StatusCode: 500, ParsedURL: mustURL(t, "https://example.com/")},
	}
	_, err := BuildGraph(records, nil)
	require.Error(t, err)
	assert.Equal(t, ErrErroredDocumentRequest, err.(*Error).Code)
}

func TestBuildGraph_SimplePage_WiresScriptToRootAndMarksMainDocument(t *testing.T) {
	doc := &NetworkRequest{RequestID: "doc", URL: "https://example.com/", ResourceType: ResourceDocument, StartTime: 0, EndTime: 0.1, ParsedURL: mustURL(t, "https://example.com/")}
	script := &NetworkRequest{RequestID: "script", URL: "https://example.com/a.js", ResourceType: ResourceScript, StartTime: 0.1, EndTime: 0.2, ParsedURL: mustURL(t, "https://example.com/a.js")}

	g, err := BuildGraph([]*NetworkRequest{doc, script}, nil)
	require.NoError(t, err)
	require.NotNil(t, g.MainDocumentNode)
	assert.Equal(t, "doc", g.MainDocumentNode.ID)
	assert.Equal(t, "doc", g.Root.ID)

	scriptNode := g.NodeByID("script")
	require.NotNil(t, scriptNode)
	require.Len(t, scriptNode.GetDependencies(), 1)
	assert.Equal(t, "doc", scriptNode.GetDependencies()[0].ID)
}

func TestBuildGraph_DuplicateRequestIDs_AreUniquified(t *testing.T) {
	doc := &NetworkRequest{RequestID: "doc", URL: "https://example.com/", ResourceType: ResourceDocument, ParsedURL: mustURL(t, "https://example.com/")}
	dup1 := &NetworkRequest{RequestID: "r1", URL: "https://example.com/b.js", ResourceType: ResourceScript, ParsedURL: mustURL(t, "https://example.com/b.js")}
	dup2 := &NetworkRequest{RequestID: "r1", URL: "https://example.com/c.js", ResourceType: ResourceScript, ParsedURL: mustURL(t, "https://example.com/c.js")}

	g, err := BuildGraph([]*NetworkRequest{doc, dup1, dup2}, nil)
	require.NoError(t, err)
	assert.NotNil(t, g.NodeByID("r1"))
	assert.NotNil(t, g.NodeByID("r1:duplicate"))
}

func TestBuildGraph_MediaRecords_AreExcludedFromGraph(t *testing.T) {
	doc := &NetworkRequest{RequestID: "doc", URL: "https://example.com/", ResourceType: ResourceDocument, ParsedURL: mustURL(t, "https://example.com/")}
	video := &NetworkRequest{RequestID: "video", URL: "https://example.com/v.mp4", ResourceType: ResourceMedia, ParsedURL: mustURL(t, "https://example.com/v.mp4")}

	g, err := BuildGraph([]*NetworkRequest{doc, video}, nil)
	require.NoError(t, err)
	assert.Nil(t, g.NodeByID("video"))
}

func TestExtractCPUNodes_GroupsTopLevelTasksWithNestedChildren(t *testing.T) {
	events := []*TraceEvent{
		{Name: "RunTask", TS: 0, Dur: 20_000},     // top-level, 20ms
		{Name: "EvaluateScript", TS: 1_000, Dur: 500}, // nested
		{Name: "ShortTask", TS: 100_000, Dur: 1_000},  // below 10ms threshold, skipped
	}
	nodes := extractCPUNodes(events)
	require.Len(t, nodes, 1)
	assert.Len(t, nodes[0].Task.ChildEvents, 1)
	assert.Equal(t, "EvaluateScript", nodes[0].Task.ChildEvents[0].Name)
}

func TestWireCPUTask_EvaluateScript_DependsOnMatchingNetworkNode(t *testing.T) {
	scriptReq := &NetworkRequest{RequestID: "script", URL: "https://example.com/a.js", StartTime: 0, EndTime: 0.01}
	scriptNode := NewNetworkNode("script", scriptReq)
	byURL := map[string][]*Node{"https://example.com/a.js": {scriptNode}}

	cpuEvent := &TraceEvent{Name: "RunTask", TS: 20_000, Dur: 15_000}
	cpuNode := NewCPUNode("cpu-1", &CPUTask{
		Event:       cpuEvent,
		ChildEvents: []*TraceEvent{{Name: "EvaluateScript", Data: EventData{URL: "https://example.com/a.js"}}},
	})

	wireCPUTask(cpuNode, byURL, make(map[string]*Node))
	require.Len(t, cpuNode.GetDependencies(), 1)
	assert.Equal(t, "script", cpuNode.GetDependencies()[0].ID)
}

func TestWireCPUTask_TimerFire_DependsOnTimerInstaller(t *testing.T) {
	installer := NewCPUNode("installer", &CPUTask{Event: &TraceEvent{TS: 0}})
	timerInstallers := map[string]*Node{"timer-1": installer}

	cpuEvent := &TraceEvent{Name: "RunTask", TS: 10_000}
	cpuNode := NewCPUNode("fire", &CPUTask{
		Event:       cpuEvent,
		ChildEvents: []*TraceEvent{{Name: "TimerFire", Data: EventData{TimerID: "timer-1"}}},
	})

	wireCPUTask(cpuNode, map[string][]*Node{}, timerInstallers)
	require.Len(t, cpuNode.GetDependencies(), 1)
	assert.Equal(t, "installer", cpuNode.GetDependencies()[0].ID)
}

package recorder

import (
	"encoding/json"
	"testing"

	lantern "github.com/lantern-sim/lantern/lantern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(t *testing.T, method string, params interface{}) Message {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return Message{Method: method, Params: raw}
}

func TestBuildNetworkRequests_SimpleRequest_PopulatesCoreFields(t *testing.T) {
	messages := []Message{
		msg(t, "Network.requestWillBeSent", requestWillBeSentParams{
			RequestID: "1", Request: requestParams{URL: "https://example.com/"}, Timestamp: 0, Type: "Document",
		}),
		msg(t, "Network.responseReceived", responseReceivedParams{
			RequestID: "1", Response: responseParams{Status: 200, Protocol: "h2"},
		}),
		msg(t, "Network.dataReceived", dataReceivedParams{RequestID: "1", DataLength: 1000, EncodedDataLength: 600}),
		msg(t, "Network.loadingFinished", loadingFinishedParams{RequestID: "1", Timestamp: 1, EncodedDataLength: 650}),
	}

	records, err := BuildNetworkRequests(messages)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "1", r.RequestID)
	assert.Equal(t, "https://example.com/", r.URL)
	assert.Equal(t, lantern.ResourceDocument, r.ResourceType)
	assert.Equal(t, 200, r.StatusCode)
	assert.Equal(t, "h2", r.Protocol)
	assert.True(t, r.Finished)
	assert.Equal(t, 1.0, r.EndTime)
	assert.Equal(t, int64(650), r.TransferSize, "loadingFinished's EncodedDataLength overrides the running dataReceived total")
	assert.Equal(t, int64(1000), r.ResourceSize)
	assert.NotNil(t, r.ParsedURL)
}

func TestBuildNetworkRequests_Redirect_LinksOriginalAndDestination(t *testing.T) {
	messages := []Message{
		msg(t, "Network.requestWillBeSent", requestWillBeSentParams{
			RequestID: "1", Request: requestParams{URL: "https://example.com/old"}, Timestamp: 0, Type: "Document",
		}),
		msg(t, "Network.requestWillBeSent", requestWillBeSentParams{
			RequestID: "1", Request: requestParams{URL: "https://example.com/new"}, Timestamp: 0.1, Type: "Document",
			RedirectResponse: &responseParams{Status: 302},
		}),
	}

	records, err := BuildNetworkRequests(messages)
	require.NoError(t, err)
	require.Len(t, records, 2)

	original := records[0]
	redirect := records[1]
	assert.Equal(t, "1", original.RequestID)
	assert.True(t, original.Finished)
	assert.Equal(t, 302, original.StatusCode)
	assert.Equal(t, "1:redirect", redirect.RequestID)
	assert.Same(t, original, redirect.RedirectSource)
	assert.Same(t, redirect, original.RedirectDestination)
}

func TestBuildNetworkRequests_LoadingFailed_MarksFailed(t *testing.T) {
	messages := []Message{
		msg(t, "Network.requestWillBeSent", requestWillBeSentParams{RequestID: "1", Request: requestParams{URL: "https://example.com/a.js"}, Type: "Script"}),
		msg(t, "Network.loadingFailed", loadingFailedParams{RequestID: "1", Timestamp: 2}),
	}
	records, err := BuildNetworkRequests(messages)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Failed)
	assert.Equal(t, 2.0, records[0].EndTime)
}

func TestBuildNetworkRequests_ResourceChangedPriority_UpdatesPriority(t *testing.T) {
	messages := []Message{
		msg(t, "Network.requestWillBeSent", requestWillBeSentParams{RequestID: "1", Request: requestParams{URL: "https://example.com/a.js"}, Type: "Script"}),
		msg(t, "Network.resourceChangedPriority", resourceChangedPriorityParams{RequestID: "1", NewPriority: "VeryHigh"}),
	}
	records, err := BuildNetworkRequests(messages)
	require.NoError(t, err)
	assert.Equal(t, lantern.PriorityVeryHigh, records[0].Priority)
}

func TestBuildNetworkRequests_RequestServedFromCache_MarksDiskCache(t *testing.T) {
	messages := []Message{
		msg(t, "Network.requestWillBeSent", requestWillBeSentParams{RequestID: "1", Request: requestParams{URL: "https://example.com/a.css"}, Type: "Stylesheet"}),
		msg(t, "Network.requestServedFromCache", idParams{RequestID: "1"}),
	}
	records, err := BuildNetworkRequests(messages)
	require.NoError(t, err)
	assert.True(t, records[0].FromDiskCache)
}

func TestBuildNetworkRequests_UnknownRequestID_IsIgnoredNotAnError(t *testing.T) {
	messages := []Message{
		msg(t, "Network.dataReceived", dataReceivedParams{RequestID: "missing", DataLength: 10}),
	}
	records, err := BuildNetworkRequests(messages)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestResourceTypeFromString_MapsKnownTypesAndDefaultsToOther(t *testing.T) {
	assert.Equal(t, lantern.ResourceScript, resourceTypeFromString("Script"))
	assert.Equal(t, lantern.ResourceXHR, resourceTypeFromString("XHR"))
	assert.Equal(t, lantern.ResourceOther, resourceTypeFromString("SomethingUnknown"))
}

func TestPriorityFromString_MapsKnownValuesAndDefaultsToMedium(t *testing.T) {
	assert.Equal(t, lantern.PriorityVeryLow, priorityFromString("VeryLow"))
	assert.Equal(t, lantern.PriorityHigh, priorityFromString("High"))
	assert.Equal(t, lantern.PriorityMedium, priorityFromString("bogus"))
}

package lantern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkRequest_Origin_IsSchemeAndHost(t *testing.T) {
	r := &NetworkRequest{ParsedURL: mustURL(t, "https://example.com:8080/path?q=1")}
	assert.Equal(t, "https://example.com:8080", r.Origin())
}

func TestNetworkRequest_Origin_EmptyWhenUnparsed(t *testing.T) {
	r := &NetworkRequest{}
	assert.Equal(t, "", r.Origin())
}

func TestNetworkRequest_IsSecure(t *testing.T) {
	assert.True(t, (&NetworkRequest{ParsedURL: mustURL(t, "https://a.com")}).IsSecure())
	assert.True(t, (&NetworkRequest{ParsedURL: mustURL(t, "wss://a.com")}).IsSecure())
	assert.False(t, (&NetworkRequest{ParsedURL: mustURL(t, "http://a.com")}).IsSecure())
}

func TestNetworkRequest_IsNonNetworkProtocol(t *testing.T) {
	assert.True(t, (&NetworkRequest{ParsedURL: mustURL(t, "data:text/plain,hi")}).IsNonNetworkProtocol())
	assert.False(t, (&NetworkRequest{ParsedURL: mustURL(t, "https://a.com")}).IsNonNetworkProtocol())
}

func TestNetworkRequest_HasRenderBlockingPriority(t *testing.T) {
	assert.True(t, (&NetworkRequest{Priority: PriorityVeryHigh}).HasRenderBlockingPriority())
	assert.True(t, (&NetworkRequest{Priority: PriorityHigh, ResourceType: ResourceScript}).HasRenderBlockingPriority())
	assert.True(t, (&NetworkRequest{Priority: PriorityHigh, ResourceType: ResourceDocument}).HasRenderBlockingPriority())
	assert.False(t, (&NetworkRequest{Priority: PriorityHigh, ResourceType: ResourceImage}).HasRenderBlockingPriority())
	assert.False(t, (&NetworkRequest{Priority: PriorityMedium}).HasRenderBlockingPriority())
}

func TestNetworkRequest_InitiatorType(t *testing.T) {
	assert.Equal(t, "", (&NetworkRequest{}).InitiatorType())
	assert.Equal(t, "script", (&NetworkRequest{Initiator: &Initiator{Type: "script"}}).InitiatorType())
}

func TestNetworkRequest_IsFinishedOrEffectivelyFinished(t *testing.T) {
	assert.True(t, (&NetworkRequest{Finished: true}).IsFinishedOrEffectivelyFinished())
	assert.True(t, (&NetworkRequest{Failed: true}).IsFinishedOrEffectivelyFinished())
	assert.True(t, (&NetworkRequest{Protocol: "quic", Timing: &ResourceTiming{ReceiveHeadersEnd: 100}}).IsFinishedOrEffectivelyFinished())
	assert.True(t, (&NetworkRequest{IsMainDocument: true, StatusCode: 200}).IsFinishedOrEffectivelyFinished())
	assert.False(t, (&NetworkRequest{}).IsFinishedOrEffectivelyFinished())
}

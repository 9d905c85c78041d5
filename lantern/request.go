// Models a single observed network request and its derived fields:
// origin, resource type, priority, and timing phases.

package lantern

import "net/url"

// ResourceType classifies what a network request fetched.
type ResourceType string

const (
	ResourceDocument   ResourceType = "Document"
	ResourceScript     ResourceType = "Script"
	ResourceStylesheet ResourceType = "Stylesheet"
	ResourceImage      ResourceType = "Image"
	ResourceFont       ResourceType = "Font"
	ResourceXHR        ResourceType = "XHR"
	ResourceFetch      ResourceType = "Fetch"
	ResourceMedia      ResourceType = "Media"
	ResourceOther      ResourceType = "Other"
)

// Priority is Chrome's resource-priority classification.
type Priority string

const (
	PriorityVeryLow  Priority = "VeryLow"
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityVeryHigh Priority = "VeryHigh"
)

// Initiator describes what caused a request: either a parent URL or a
// JS call stack (one or more frame URLs).
type Initiator struct {
	Type       string   // e.g. "parser", "script", "other"
	URL        string   // set when Type != "script"
	StackURLs  []string // unique frame URLs, set when Type == "script"
}

// ResourceTiming carries the optional sub-phase timestamps Chrome reports
// for a request, all in milliseconds relative to the request's StartTime.
type ResourceTiming struct {
	DNSStart           float64
	DNSEnd             float64
	ConnectStart       float64
	ConnectEnd         float64
	SSLStart           float64
	SSLEnd             float64
	SendStart          float64
	SendEnd            float64
	ReceiveHeadersEnd  float64
}

// NetworkRequest is the typed record for one observed network request (C1).
// Records are read-only once ingested, except that BuildGraph rewrites
// colliding RequestIDs and sets IsMainDocument; a zero RequestID is invalid.
type NetworkRequest struct {
	RequestID string
	URL       string
	ParsedURL *url.URL

	ResourceType ResourceType
	Priority     Priority

	StartTime float64 // seconds, observed
	EndTime   float64 // seconds, observed

	TransferSize int64
	ResourceSize int64

	StatusCode int
	Finished   bool
	Failed     bool

	FromDiskCache bool

	Protocol         string // "h2", "http/1.1", ...
	ConnectionID     string
	ConnectionReused bool

	Timing *ResourceTiming // nil if not reported

	Initiator *Initiator

	RedirectSource      *NetworkRequest
	RedirectDestination *NetworkRequest

	DocumentURL string // the frame's document URL, for main-document detection

	IsMainDocument bool
}

// Origin returns the scheme://host[:port] security origin of the request,
// or "" if the URL failed to parse.
func (r *NetworkRequest) Origin() string {
	if r.ParsedURL == nil {
		return ""
	}
	return r.ParsedURL.Scheme + "://" + r.ParsedURL.Host
}

// Scheme returns the URL scheme, or "" if unparsed.
func (r *NetworkRequest) Scheme() string {
	if r.ParsedURL == nil {
		return ""
	}
	return r.ParsedURL.Scheme
}

// IsSecure reports whether the request's scheme implies TLS.
func (r *NetworkRequest) IsSecure() bool {
	switch r.Scheme() {
	case "https", "wss":
		return true
	default:
		return false
	}
}

// IsNonNetworkProtocol reports whether the request is served from a
// non-network scheme (data:, blob:, ws:, wss:) that the network-quiet
// sweep line should never count as in-flight.
func (r *NetworkRequest) IsNonNetworkProtocol() bool {
	switch r.Scheme() {
	case "data", "blob", "ws", "wss":
		return true
	default:
		return false
	}
}

// HasRenderBlockingPriority implements the C1 capability predicate:
// priority VeryHigh, or High+Script, or High+Document.
func (r *NetworkRequest) HasRenderBlockingPriority() bool {
	if r.Priority == PriorityVeryHigh {
		return true
	}
	if r.Priority == PriorityHigh && (r.ResourceType == ResourceScript || r.ResourceType == ResourceDocument) {
		return true
	}
	return false
}

// InitiatorType returns "" if there is no initiator, else the initiator's Type.
func (r *NetworkRequest) InitiatorType() string {
	if r.Initiator == nil {
		return ""
	}
	return r.Initiator.Type
}

// IsFinishedOrEffectivelyFinished treats a QUIC connection that already
// received headers, or the frame-root request once it has a response, as
// finished even if the Finished flag has not yet been set by the recorder
// (used by the network-quiet sweep line, C9).
func (r *NetworkRequest) IsFinishedOrEffectivelyFinished() bool {
	if r.Finished || r.Failed {
		return true
	}
	if r.Protocol == "quic" && r.Timing != nil && r.Timing.ReceiveHeadersEnd > 0 {
		return true
	}
	if r.IsMainDocument && r.StatusCode > 0 {
		return true
	}
	return false
}

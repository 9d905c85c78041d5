// Folds a devtools protocol log (Network.* messages) into Lantern's
// typed []*NetworkRequest (C1), per §6's input description. Modeled as a
// pure function from the message list to the record list — no recorder
// object, no mutable session state outside the fold — per the Design
// Note on recorder state machines. Supplements spec.md's distillation,
// which treats this conversion as out of scope for the core.

package recorder

import (
	"encoding/json"
	"net/url"

	lantern "github.com/lantern-sim/lantern/lantern"
)

// Message is one devtools protocol event: a method name plus its raw
// JSON params, folded independently of ordering beyond first-seen.
type Message struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type initiatorParams struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Stack *struct {
		CallFrames []struct {
			URL string `json:"url"`
		} `json:"callFrames"`
	} `json:"stack"`
}

type requestParams struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

type timingParams struct {
	DNSStart          float64 `json:"dnsStart"`
	DNSEnd            float64 `json:"dnsEnd"`
	ConnectStart       float64 `json:"connectStart"`
	ConnectEnd         float64 `json:"connectEnd"`
	SSLStart           float64 `json:"sslStart"`
	SSLEnd             float64 `json:"sslEnd"`
	SendStart          float64 `json:"sendStart"`
	SendEnd            float64 `json:"sendEnd"`
	ReceiveHeadersEnd  float64 `json:"receiveHeadersEnd"`
}

type responseParams struct {
	URL              string        `json:"url"`
	Status           int           `json:"status"`
	Protocol         string        `json:"protocol"`
	ConnectionID     json.Number   `json:"connectionId"`
	ConnectionReused bool          `json:"connectionReused"`
	FromDiskCache    bool          `json:"fromDiskCache"`
	Timing           *timingParams `json:"timing"`
}

type requestWillBeSentParams struct {
	RequestID       string           `json:"requestId"`
	DocumentURL     string           `json:"documentURL"`
	Request         requestParams    `json:"request"`
	Timestamp       float64          `json:"timestamp"`
	Type            string           `json:"type"`
	Initiator       *initiatorParams `json:"initiator"`
	RedirectResponse *responseParams `json:"redirectResponse"`
}

type idParams struct {
	RequestID string `json:"requestId"`
}

type responseReceivedParams struct {
	RequestID string         `json:"requestId"`
	Type      string         `json:"type"`
	Response  responseParams `json:"response"`
}

type dataReceivedParams struct {
	RequestID         string `json:"requestId"`
	DataLength        int64  `json:"dataLength"`
	EncodedDataLength int64  `json:"encodedDataLength"`
}

type loadingFinishedParams struct {
	RequestID         string  `json:"requestId"`
	Timestamp         float64 `json:"timestamp"`
	EncodedDataLength int64   `json:"encodedDataLength"`
}

type loadingFailedParams struct {
	RequestID string  `json:"requestId"`
	Timestamp float64 `json:"timestamp"`
	Canceled  bool    `json:"canceled"`
}

type resourceChangedPriorityParams struct {
	RequestID   string `json:"requestId"`
	NewPriority string `json:"newPriority"`
}

// BuildNetworkRequests folds a devtools-log message list into the typed
// record list the graph builder (C7) consumes. Redirects produce a new
// record with id `{orig}:redirect`, linked back via RedirectSource.
func BuildNetworkRequests(messages []Message) ([]*lantern.NetworkRequest, error) {
	byID := make(map[string]*lantern.NetworkRequest)
	var order []string

	put := func(r *lantern.NetworkRequest) {
		byID[r.RequestID] = r
		order = append(order, r.RequestID)
	}

	for _, m := range messages {
		switch m.Method {
		case "Network.requestWillBeSent":
			var p requestWillBeSentParams
			if err := json.Unmarshal(m.Params, &p); err != nil {
				return nil, lantern.NewError(lantern.ErrNoDocumentRequest, "recorder", "parsing requestWillBeSent: %v", err)
			}
			req := &lantern.NetworkRequest{
				RequestID:    p.RequestID,
				URL:          p.Request.URL,
				StartTime:    p.Timestamp,
				DocumentURL:  p.DocumentURL,
				ResourceType: resourceTypeFromString(p.Type),
				Initiator:    toInitiator(p.Initiator),
			}
			if u, err := url.Parse(req.URL); err == nil {
				req.ParsedURL = u
			}

			if p.RedirectResponse != nil {
				if prev, ok := byID[p.RequestID]; ok {
					applyResponse(prev, p.RedirectResponse)
					prev.Finished = true
					req.RequestID = p.RequestID + ":redirect"
					req.RedirectSource = prev
					prev.RedirectDestination = req
				}
			}
			put(req)

		case "Network.requestServedFromCache":
			var p idParams
			if err := json.Unmarshal(m.Params, &p); err == nil {
				if r, ok := byID[p.RequestID]; ok {
					r.FromDiskCache = true
				}
			}

		case "Network.responseReceived":
			var p responseReceivedParams
			if err := json.Unmarshal(m.Params, &p); err == nil {
				if r, ok := byID[p.RequestID]; ok {
					applyResponse(r, &p.Response)
					if p.Type != "" {
						r.ResourceType = resourceTypeFromString(p.Type)
					}
				}
			}

		case "Network.dataReceived":
			var p dataReceivedParams
			if err := json.Unmarshal(m.Params, &p); err == nil {
				if r, ok := byID[p.RequestID]; ok {
					r.TransferSize += p.EncodedDataLength
					r.ResourceSize += p.DataLength
				}
			}

		case "Network.loadingFinished":
			var p loadingFinishedParams
			if err := json.Unmarshal(m.Params, &p); err == nil {
				if r, ok := byID[p.RequestID]; ok {
					r.Finished = true
					r.EndTime = p.Timestamp
					if p.EncodedDataLength > 0 {
						r.TransferSize = p.EncodedDataLength
					}
				}
			}

		case "Network.loadingFailed":
			var p loadingFailedParams
			if err := json.Unmarshal(m.Params, &p); err == nil {
				if r, ok := byID[p.RequestID]; ok {
					r.Failed = true
					r.EndTime = p.Timestamp
				}
			}

		case "Network.resourceChangedPriority":
			var p resourceChangedPriorityParams
			if err := json.Unmarshal(m.Params, &p); err == nil {
				if r, ok := byID[p.RequestID]; ok {
					r.Priority = priorityFromString(p.NewPriority)
				}
			}
		}
	}

	out := make([]*lantern.NetworkRequest, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, nil
}

func applyResponse(r *lantern.NetworkRequest, resp *responseParams) {
	if resp.URL != "" {
		r.URL = resp.URL
	}
	r.StatusCode = resp.Status
	r.Protocol = resp.Protocol
	r.ConnectionID = resp.ConnectionID.String()
	r.ConnectionReused = resp.ConnectionReused
	r.FromDiskCache = r.FromDiskCache || resp.FromDiskCache
	if resp.Timing != nil {
		r.Timing = &lantern.ResourceTiming{
			DNSStart:          resp.Timing.DNSStart,
			DNSEnd:            resp.Timing.DNSEnd,
			ConnectStart:      resp.Timing.ConnectStart,
			ConnectEnd:        resp.Timing.ConnectEnd,
			SSLStart:          resp.Timing.SSLStart,
			SSLEnd:            resp.Timing.SSLEnd,
			SendStart:         resp.Timing.SendStart,
			SendEnd:           resp.Timing.SendEnd,
			ReceiveHeadersEnd: resp.Timing.ReceiveHeadersEnd,
		}
	}
}

func toInitiator(p *initiatorParams) *lantern.Initiator {
	if p == nil {
		return nil
	}
	init := &lantern.Initiator{Type: p.Type, URL: p.URL}
	if p.Stack != nil {
		seen := make(map[string]bool)
		for _, f := range p.Stack.CallFrames {
			if f.URL == "" || seen[f.URL] {
				continue
			}
			seen[f.URL] = true
			init.StackURLs = append(init.StackURLs, f.URL)
		}
	}
	return init
}

func resourceTypeFromString(s string) lantern.ResourceType {
	switch s {
	case "Document":
		return lantern.ResourceDocument
	case "Script":
		return lantern.ResourceScript
	case "Stylesheet":
		return lantern.ResourceStylesheet
	case "Image":
		return lantern.ResourceImage
	case "Font":
		return lantern.ResourceFont
	case "XHR":
		return lantern.ResourceXHR
	case "Fetch":
		return lantern.ResourceFetch
	case "Media":
		return lantern.ResourceMedia
	default:
		return lantern.ResourceOther
	}
}

func priorityFromString(s string) lantern.Priority {
	switch s {
	case "VeryLow":
		return lantern.PriorityVeryLow
	case "Low":
		return lantern.PriorityLow
	case "Medium":
		return lantern.PriorityMedium
	case "High":
		return lantern.PriorityHigh
	case "VeryHigh":
		return lantern.PriorityVeryHigh
	default:
		return lantern.PriorityMedium
	}
}

// Extracts the handful of landmark timestamps the metric engine needs
// from the observed main-thread trace: navigation start and the
// browser-reported paint/load markers. Grounded on the teacher's
// small-parser style in sim/workload/ (scan once, populate a struct).

package metrics

import lantern "github.com/lantern-sim/lantern/lantern"

// TraceOfTab holds the observed landmark timestamps used both to seed
// lantern-mode subgraph cutoffs and to compute the non-lantern
// ("observed") metrics directly.
type TraceOfTab struct {
	NavigationStartUs         int64
	FirstContentfulPaintUs    int64
	FirstMeaningfulPaintUs    int64
	DOMContentLoadedUs        int64
	HasFirstContentfulPaint   bool
	HasFirstMeaningfulPaint   bool
	HasDOMContentLoaded       bool
}

// FirstContentfulPaintMs / FirstMeaningfulPaintMs report the landmark
// relative to navigation start, in milliseconds.
func (t *TraceOfTab) FirstContentfulPaintMs() float64 {
	return float64(t.FirstContentfulPaintUs-t.NavigationStartUs) / 1000
}

func (t *TraceOfTab) FirstMeaningfulPaintMs() float64 {
	return float64(t.FirstMeaningfulPaintUs-t.NavigationStartUs) / 1000
}

// ExtractTraceOfTab scans the trace once for the landmark instant
// events Chrome emits during a page load.
func ExtractTraceOfTab(events []*lantern.TraceEvent) (*TraceOfTab, error) {
	t := &TraceOfTab{}
	navigationStartSeen := false
	for _, e := range events {
		switch e.Name {
		case "navigationStart":
			if !navigationStartSeen {
				t.NavigationStartUs = e.TS
				navigationStartSeen = true
			}
		case "firstContentfulPaint":
			if !t.HasFirstContentfulPaint {
				t.FirstContentfulPaintUs = e.TS
				t.HasFirstContentfulPaint = true
			}
		case "firstMeaningfulPaint":
			if !t.HasFirstMeaningfulPaint {
				t.FirstMeaningfulPaintUs = e.TS
				t.HasFirstMeaningfulPaint = true
			}
		case "domContentLoadedEventEnd":
			if !t.HasDOMContentLoaded {
				t.DOMContentLoadedUs = e.TS
				t.HasDOMContentLoaded = true
			}
		}
	}
	if !navigationStartSeen {
		return nil, lantern.NewError(lantern.ErrNoNavigationStart, "trace-of-tab", "no navigationStart event in trace")
	}
	return t, nil
}

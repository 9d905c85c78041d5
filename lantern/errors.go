// Closed error-code enumeration (§7). Data-quality errors are surfaced
// unchanged; the core never substitutes defaults for a missing metric.
// Builder/simulator invariant violations are fatal to the current metric
// only — sibling metrics may still compute (see lantern/metrics/engine.go).

package lantern

import "fmt"

// ErrorCode is a stable, closed enumeration of the failure modes a caller
// of this package needs to branch on.
type ErrorCode string

const (
	ErrNoNavigationStart        ErrorCode = "NO_NAVIGATION_START"
	ErrNoFirstContentfulPaint   ErrorCode = "NO_FIRST_CONTENTFUL_PAINT"
	ErrNoFirstMeaningfulPaint   ErrorCode = "NO_FIRST_MEANINGFUL_PAINT"
	ErrNoDOMContentLoaded       ErrorCode = "NO_DOM_CONTENT_LOADED"
	ErrNoSpeedlineFrames        ErrorCode = "NO_SPEEDLINE_FRAMES"
	ErrNoScreenshots            ErrorCode = "NO_SCREENSHOTS"
	ErrInvalidSpeedline         ErrorCode = "INVALID_SPEEDLINE"
	ErrNoTTINetworkIdlePeriod   ErrorCode = "NO_TTI_NETWORK_IDLE_PERIOD"
	ErrNoTTICPUIdlePeriod       ErrorCode = "NO_TTI_CPU_IDLE_PERIOD"
	ErrNoDocumentRequest        ErrorCode = "NO_DOCUMENT_REQUEST"
	ErrFailedDocumentRequest    ErrorCode = "FAILED_DOCUMENT_REQUEST"
	ErrErroredDocumentRequest   ErrorCode = "ERRORED_DOCUMENT_REQUEST"
	ErrGraphCycleDetected       ErrorCode = "GRAPH_CYCLE_DETECTED"
	ErrGraphStarved             ErrorCode = "GRAPH_STARVED"
	ErrGraphDepthExceeded       ErrorCode = "GRAPH_DEPTH_EXCEEDED"
	ErrNoTimingInformation      ErrorCode = "NO_TIMING_INFORMATION"
)

// Error is Lantern's typed failure. Phase is one of "analyzer", "builder",
// "simulator", or a metric name (e.g. "first-contentful-paint").
type Error struct {
	Code    ErrorCode
	Phase   string
	InputID string // the failing request/node id, when applicable
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Phase, e.Message)
	if e.InputID != "" {
		msg = fmt.Sprintf("%s (input=%s)", msg, e.InputID)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// newError builds an *Error with a formatted message.
func newError(code ErrorCode, phase string, format string, args ...any) *Error {
	return &Error{Code: code, Phase: phase, Message: fmt.Sprintf(format, args...)}
}

// NewError is newError's exported form, for callers outside this package
// (lantern/metrics, lantern/recorder) that need to raise a typed failure.
func NewError(code ErrorCode, phase string, format string, args ...any) *Error {
	return newError(code, phase, format, args...)
}

// wrapError builds an *Error carrying a wrapped cause.
func wrapError(code ErrorCode, phase string, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Phase: phase, Message: fmt.Sprintf(format, args...), Cause: cause}
}

package lantern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error_IncludesPhaseAndMessage(t *testing.T) {
	e := newError(ErrGraphCycleDetected, "builder", "cycle at %s", "node-1")
	assert.Contains(t, e.Error(), "builder")
	assert.Contains(t, e.Error(), "cycle at node-1")
}

func TestError_Error_IncludesInputIDWhenSet(t *testing.T) {
	e := newError(ErrNoDocumentRequest, "builder", "missing")
	e.InputID = "req-42"
	assert.Contains(t, e.Error(), "req-42")
}

func TestError_Unwrap_ReturnsCause(t *testing.T) {
	cause := errors.New("underlying failure")
	e := wrapError(ErrNoTimingInformation, "simulator", cause, "wrapped")
	assert.Equal(t, cause, errors.Unwrap(e))
	assert.True(t, errors.Is(e, cause))
}

func TestNewError_IsExportedEquivalentOfNewError(t *testing.T) {
	e := NewError(ErrGraphStarved, "simulator", "starved at %dms", 100)
	assert.Equal(t, ErrGraphStarved, e.Code)
	assert.Equal(t, "simulator", e.Phase)
	assert.Contains(t, e.Message, "100ms")
}

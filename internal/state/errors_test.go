package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_StringWithAndWithoutEntity(t *testing.T) {
	withEntity := &Error{Code: ErrCodeCyclicDependency, Message: "slot re-entered while computing", Entity: "tabSize"}
	assert.Equal(t, "CYCLIC_DEPENDENCY: slot re-entered while computing (tabSize)", withEntity.Error())

	bare := &Error{Code: ErrCodeInvalidDependency, Message: "unsupported dependency"}
	assert.Equal(t, "INVALID_DEPENDENCY: unsupported dependency", bare.Error())
}

func TestErrorPredicates_MatchWrappedErrors(t *testing.T) {
	err := fmt.Errorf("applying transaction: %w", &Error{Code: ErrCodeCyclicDependency})
	assert.True(t, IsCyclicDependency(err))
	assert.False(t, IsStaticFacetViolation(err))
	assert.False(t, IsCyclicDependency(fmt.Errorf("unrelated")))
	assert.False(t, IsMissingFacetData(nil))
}

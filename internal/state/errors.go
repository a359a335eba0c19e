package state

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes core errors.
type ErrorCode string

const (
	// ErrCodeStaticFacetViolation indicates a computed provider targeted a
	// facet declared static.
	ErrCodeStaticFacetViolation ErrorCode = "STATIC_FACET_VIOLATION"

	// ErrCodeMissingFacetData indicates a value presented as a facet handle
	// has no associated facet identity.
	ErrCodeMissingFacetData ErrorCode = "MISSING_FACET_DATA"

	// ErrCodeCyclicDependency indicates a slot was re-entered while it was
	// being computed.
	ErrCodeCyclicDependency ErrorCode = "CYCLIC_DEPENDENCY"

	// ErrCodeInvalidDependency indicates a dependency slot that is not a
	// facet, a state field, Doc, or Sel.
	ErrCodeInvalidDependency ErrorCode = "INVALID_DEPENDENCY"
)

// Error represents an error detected during resolution or evaluation.
//
// All core errors are synchronous: they abort the current operation
// (resolution or transition) and propagate to the caller. None are retried;
// a caller may surface them as fatal or recover by reverting to the prior
// configuration. Errors thrown by user-supplied functions propagate
// unchanged and are never wrapped in an Error.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity names the facet, field, or slot involved, when known.
	Entity string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Entity)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsStaticFacetViolation reports whether err is a static facet violation.
// Uses errors.As to handle wrapped errors.
func IsStaticFacetViolation(err error) bool { return hasCode(err, ErrCodeStaticFacetViolation) }

// IsMissingFacetData reports whether err is a missing facet data error.
func IsMissingFacetData(err error) bool { return hasCode(err, ErrCodeMissingFacetData) }

// IsCyclicDependency reports whether err is a cyclic dependency error.
func IsCyclicDependency(err error) bool { return hasCode(err, ErrCodeCyclicDependency) }

// IsInvalidDependency reports whether err is an invalid dependency error.
func IsInvalidDependency(err error) bool { return hasCode(err, ErrCodeInvalidDependency) }

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// catchCoreError recovers a panicking *Error into *err at an operation
// boundary. Any other panic - including panics raised by user-supplied
// functions - is re-raised unchanged.
func catchCoreError(err *error) {
	if r := recover(); r != nil {
		if ce, ok := r.(*Error); ok {
			*err = ce
			return
		}
		panic(r)
	}
}

package ir

import (
	"errors"
	"fmt"
)

// Error is the structured error type shared by every semirace package.
//
// Error categories:
//   - Configuration: misuse of a lifecycle API (adding a runner after a race
//     started, reusing a dead runner). Never retried.
//   - OutOfRange: a word contains a letter outside the declared alphabet.
//   - ResourceExhausted: a computation exceeded its rule, coset or length cap.
//   - Incomplete: a race ended without a winner.
//
// ResourceExhausted and Incomplete are recoverable: rerun with a larger
// budget. Neither is ever treated as success.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates a programming-contract violation.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// ErrCodeOutOfRange indicates an undeclared generator in a word.
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"

	// ErrCodeResourceExhausted indicates a computation hit its cap.
	ErrCodeResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"

	// ErrCodeIncomplete indicates a race produced no winner within budget.
	ErrCodeIncomplete ErrorCode = "INCOMPLETE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates an Error for lifecycle misuse.
func NewConfigurationError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// NewOutOfRangeError creates an Error for a letter outside [0, nrGenerators).
func NewOutOfRangeError(letter Letter, nrGenerators int) *Error {
	return &Error{
		Code:    ErrCodeOutOfRange,
		Message: fmt.Sprintf("letter %d is not a generator (expected < %d)", letter, nrGenerators),
		Details: map[string]string{
			"letter":        fmt.Sprintf("%d", letter),
			"nr_generators": fmt.Sprintf("%d", nrGenerators),
		},
	}
}

// NewResourceExhaustedError creates an Error for an exceeded cap.
func NewResourceExhaustedError(resource string, used, limit int) *Error {
	return &Error{
		Code:    ErrCodeResourceExhausted,
		Message: fmt.Sprintf("%s exceeded limit (%d > %d)", resource, used, limit),
		Details: map[string]string{
			"resource": resource,
			"used":     fmt.Sprintf("%d", used),
			"limit":    fmt.Sprintf("%d", limit),
		},
	}
}

// NewIncompleteError creates an Error for a race without a winner.
// cause may be nil.
func NewIncompleteError(message string, cause error) *Error {
	return &Error{Code: ErrCodeIncomplete, Message: message, Err: cause}
}

// IsConfigurationError reports whether err is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsOutOfRangeError reports whether err is an out-of-range error.
func IsOutOfRangeError(err error) bool {
	return hasCode(err, ErrCodeOutOfRange)
}

// IsResourceExhaustedError reports whether err is a resource-exhausted error.
func IsResourceExhaustedError(err error) bool {
	return hasCode(err, ErrCodeResourceExhausted)
}

// IsIncompleteError reports whether err is an incomplete error.
func IsIncompleteError(err error) bool {
	return hasCode(err, ErrCodeIncomplete)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CheckWord returns an OutOfRange error if w contains a letter that is not
// a generator of an alphabet of size nrGenerators.
func CheckWord(w Word, nrGenerators int) error {
	for _, l := range w {
		if int(l) >= nrGenerators {
			return NewOutOfRangeError(l, nrGenerators)
		}
	}
	return nil
}

package engine

import (
	"errors"
	"fmt"
)

// EvalError represents a malformed-input failure: the only class of
// problem the core raises for.
//
// Rule violations (gate failures, invalid transitions,
// disqualifiers) are NOT errors. They are first-class data in the
// result envelope, because "the input is ineligible" is an expected,
// testable outcome.
type EvalError struct {
	// Code identifies the error category.
	Code EvalErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

const (
	// ErrCodeMalformedPack indicates the scenario pack failed
	// structural validation.
	ErrCodeMalformedPack EvalErrorCode = "MALFORMED_PACK"

	// ErrCodeEmptyCatalog indicates the engine was constructed with
	// no catalog entries for the stream being evaluated.
	ErrCodeEmptyCatalog EvalErrorCode = "EMPTY_CATALOG"

	// ErrCodeInvalidMode indicates a mode other than report/enforce.
	ErrCodeInvalidMode EvalErrorCode = "INVALID_MODE"
)

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EvalError) Unwrap() error {
	return e.Err
}

// IsMalformedInput reports whether err is any EvalError, an input
// problem the caller should have caught before invoking the core, as
// opposed to a bug. Uses errors.As to handle wrapped errors.
func IsMalformedInput(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee)
}

func newEvalError(code EvalErrorCode, format string, args ...any) *EvalError {
	return &EvalError{Code: code, Message: fmt.Sprintf(format, args...)}
}

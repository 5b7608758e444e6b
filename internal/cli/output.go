package cli

import (
	"errors"
	"fmt"
)

// Exit codes. Gate failures under enforce mode are deliberately
// distinct from invalid input so CI can tell "the input was rejected
// by governance" from "the invocation was wrong".
const (
	ExitSuccess      = 0 // clean evaluation (or report mode)
	ExitGateFailure  = 1 // hard gate failures under --mode enforce
	ExitCommandError = 2 // invalid input, bad paths, runtime errors
)

// ExitError carries a specific process exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Non-ExitError
// errors map to ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

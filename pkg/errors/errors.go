// Package errors provides structured error types for graphcp.
//
// Every failure that crosses the tool boundary carries one of a closed set
// of codes, so MCP clients and CLI users can tell a rejected path from a
// malformed description or an out-of-range parameter:
//
//   - SECURITY_ERROR: path traversal, paths outside the output root,
//     forbidden characters, write denial on a requested directory
//   - DOT_SYNTAX_ERROR: empty or malformed description text
//   - FILE_OPERATION_ERROR: directory creation, write or render failures
//   - INVALID_PARAMETER: numeric or enum arguments out of bounds
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDOTSyntax, "DOT content is empty")
//	if errors.Is(err, errors.ErrCodeDOTSyntax) {
//	    // Handle rejected description
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileOperation, origErr, "failed to write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the graphcp error taxonomy.
const (
	ErrCodeSecurity         Code = "SECURITY_ERROR"
	ErrCodeDOTSyntax        Code = "DOT_SYNTAX_ERROR"
	ErrCodeFileOperation    Code = "FILE_OPERATION_ERROR"
	ErrCodeInvalidParameter Code = "INVALID_PARAMETER"

	// ErrCodeInternal marks errors nothing classified yet. Classify rewrites
	// it before an error leaves a public operation.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Path    string // Offending path (optional)
	Root    string // Allowed root the path was checked against (optional)
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithPaths records the offending path and the root it was checked against.
func (e *Error) WithPaths(path, root string) *Error {
	e.Path = path
	e.Root = root
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Classify guarantees err carries a taxonomy code. Errors that already have
// a code other than ErrCodeInternal pass through unchanged; anything else is
// wrapped with fallback and the given message.
func Classify(err error, fallback Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if code := GetCode(err); code != "" && code != ErrCodeInternal {
		return err
	}
	return Wrap(fallback, err, format, args...)
}

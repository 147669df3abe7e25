// Package errors provides structured error types for reqcheck.
//
// This package defines error codes that let callers tell apart the three
// classes of failure the resolution engine distinguishes:
//   - Recoverable absent sources (missing or unparsable declaration files)
//   - Recoverable heuristic misses (build script not detected or not evaluable)
//   - Fatal configuration errors (requirements include depth exceeded, missing
//     include file)
//
// Only the fatal class is ever returned from the engine; the recoverable ones
// are logged and swallowed by the readers that produce them.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMaxDepth, "cannot resolve %s", path)
//	if errors.IsFatal(err) {
//	    // Abort processing of the current file
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIncludeNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidRequirement Code = "INVALID_REQUIREMENT"
	ErrCodeInvalidModule      Code = "INVALID_MODULE"
	ErrCodeInvalidConfig      Code = "INVALID_CONFIG"
	ErrCodeInvalidPath        Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeIncludeNotFound Code = "REQUIREMENTS_FILE_NOT_FOUND"

	// Requirements resolution errors
	ErrCodeMaxDepth Code = "REQUIREMENTS_MAX_DEPTH"

	// Python source errors
	ErrCodeParse Code = "PARSE_ERROR"
	ErrCodeEval  Code = "EVAL_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
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

// IsFatal reports whether err signals a misconfiguration that must abort
// processing of the current file: an exceeded requirements include depth or
// an include file that cannot be opened.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeMaxDepth, ErrCodeIncludeNotFound:
		return true
	}
	return false
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

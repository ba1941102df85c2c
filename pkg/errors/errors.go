// Package errors provides structured error types for the rigmeta layers.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the scene, metadata and CLI layers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages naming the node/attribute involved
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes implement the failure taxonomy of the attribute graph layer:
// stale references, duplicate attributes, connection conflicts, unsupported
// kind operations, missing requirements, and the usual input validation and
// not-found categories.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeAttributeExists, "node %q already has attribute %q", node, name)
//	if errors.Is(err, errors.ErrCodeAttributeExists) {
//	    // Handle duplicate
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "importing %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the attribute graph failure taxonomy.
const (
	// Graph layer errors
	ErrCodeStaleReference     Code = "STALE_REFERENCE"
	ErrCodeAttributeExists    Code = "ATTRIBUTE_EXISTS"
	ErrCodeAttributeNotFound  Code = "ATTRIBUTE_NOT_FOUND"
	ErrCodeConnectionConflict Code = "CONNECTION_CONFLICT"
	ErrCodeUnsupportedKind    Code = "UNSUPPORTED_KIND"
	ErrCodeMissingRequirement Code = "MISSING_REQUIREMENT"
	ErrCodeNodeLocked         Code = "NODE_LOCKED"
	ErrCodeAttributeLocked    Code = "ATTRIBUTE_LOCKED"

	// Scene errors
	ErrCodeDuplicateNode Code = "DUPLICATE_NODE"
	ErrCodeUnknownNode   Code = "UNKNOWN_NODE"
	ErrCodeUnknownType   Code = "UNKNOWN_TYPE"

	// Input validation errors
	ErrCodeInvalidName  Code = "INVALID_NAME"
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Package errors provides structured error types for the gafetes pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across every pipeline stage and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Operator-facing messages that name the offending ordering key and role
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes mirror the pipeline's failure taxonomy:
//   - MALFORMED_NAME: an asset filename cannot be decoded (recoverable)
//   - DUPLICATE_ROLE, ORPHAN_COMPANION: pairing ambiguity (fatal to manifest build)
//   - MISSING_ASSET: a manifest entry vanished before composition (fatal)
//   - COUNT_MISMATCH, INCOMPLETE_PAIR: advisory warnings
//   - INVALID_*: input validation failures
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeOrphanCompanion, "companion has no director").WithAsset(12, "companion")
//	if errors.Is(err, errors.ErrCodeOrphanCompanion) {
//	    // Abort manifest emission
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMissingAsset, origErr, "open %s", path)
//
// [Is] walks both wrapped and joined chains, so a slice of pairing problems
// combined with [errors.Join] can still be matched by code.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Asset naming and pairing
	ErrCodeMalformedName   Code = "MALFORMED_NAME"
	ErrCodeDuplicateRole   Code = "DUPLICATE_ROLE"
	ErrCodeOrphanCompanion Code = "ORPHAN_COMPANION"
	ErrCodeMissingAsset    Code = "MISSING_ASSET"

	// Advisory conditions, reported as warnings rather than returned
	ErrCodeCountMismatch  Code = "COUNT_MISMATCH"
	ErrCodeIncompletePair Code = "INCOMPLETE_PAIR"

	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidRoster   Code = "INVALID_ROSTER"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Tooling and internal errors
	ErrCodeRasterizeFailed Code = "RASTERIZE_FAILED"
	ErrCodeInternal        Code = "INTERNAL_ERROR"
	ErrCodeUnsupported     Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
// Key and Role identify the asset involved, when there is one.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Key     int    // Ordering key of the offending asset (0 if not applicable)
	Role    string // Role of the offending asset ("" if not applicable)
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Key > 0 && e.Role != "" {
		msg = fmt.Sprintf("%s (key %d, %s)", msg, e.Key, e.Role)
	} else if e.Key > 0 {
		msg = fmt.Sprintf("%s (key %d)", msg, e.Key)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same code, which lets the standard
// library's errors.Is find a code anywhere in a joined chain.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == "" && t.Cause == nil
}

// WithAsset attaches the ordering key and role of the offending asset.
func (e *Error) WithAsset(key int, role string) *Error {
	e.Key = key
	e.Role = role
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

// Is reports whether err, or any error it wraps or joins, has the given code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, &Error{Code: code})
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

// All returns every *Error found in err's wrapped and joined chain,
// in depth-first order.
func All(err error) []*Error {
	var out []*Error
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if e, ok := err.(*Error); ok {
			out = append(out, e)
		}
		switch x := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return out
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Key > 0 && e.Role != "" {
			return fmt.Sprintf("%s (key %d, %s)", e.Message, e.Key, e.Role)
		}
		return e.Message
	}
	return err.Error()
}

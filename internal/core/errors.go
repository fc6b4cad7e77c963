// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Symbol file errors, mapped to per-symbol skips
	ErrReadFailed    = &Error{Code: "READ_FAILED", Message: "symbol file unreadable"}
	ErrMalformedData = &Error{Code: "MALFORMED_DATA", Message: "symbol file malformed"}
	ErrMissingColumn = &Error{Code: "MISSING_COLUMN", Message: "required column missing"}

	// Run-level errors
	ErrNamesMissing   = &Error{Code: "NAMES_MISSING", Message: "symbol name table unavailable"}
	ErrDataDirMissing = &Error{Code: "DATA_DIR_MISSING", Message: "data directory unavailable"}
	ErrReportFailed   = &Error{Code: "REPORT_FAILED", Message: "writing report failed"}

	// Tactic errors
	ErrTacticInvalid  = &Error{Code: "TACTIC_INVALID", Message: "tactic definition invalid"}
	ErrTacticNotFound = &Error{Code: "TACTIC_NOT_FOUND", Message: "tactic not found"}
	ErrUnknownFeature = &Error{Code: "UNKNOWN_FEATURE", Message: "unknown feature reference"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)

// SkipReasonFor maps a loader error to the skip reason reported for it.
func SkipReasonFor(err error) SkipReason {
	var e *Error
	if !errors.As(err, &e) {
		return SkipReadFailed
	}
	switch e.Code {
	case ErrMalformedData.Code:
		return SkipMalformed
	case ErrMissingColumn.Code:
		return SkipMissingColumn
	default:
		return SkipReadFailed
	}
}

// Package kiterr defines the structured error type and the closed set of
// error codes used across the engine. Codes are stable strings so tests
// and callers can match on them without string-comparing messages.
package kiterr

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an error category.
type ErrorCode string

const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Resolution-phase errors. All of these are fatal before any
	// filesystem mutation has happened.
	ErrUnknownPrefix  ErrorCode = "UNKNOWN_PREFIX"
	ErrMissingSource  ErrorCode = "MISSING_SOURCE"
	ErrAmbiguousRef   ErrorCode = "AMBIGUOUS_REF"
	ErrCyclicBundle   ErrorCode = "CYCLIC_BUNDLE"
	ErrBundleNotFound ErrorCode = "BUNDLE_NOT_FOUND"

	// ErrDuplicateTarget is a catalog configuration defect: two distinct
	// refs legally mapping to one target. Reported, never auto-fixed.
	ErrDuplicateTarget ErrorCode = "DUPLICATE_TARGET"

	// Deployment-phase errors
	ErrTargetCollision ErrorCode = "TARGET_COLLISION"

	// Manifest errors. Parse failures are recovered locally by the
	// filesystem fallback; write failures are fatal.
	ErrManifestParse ErrorCode = "MANIFEST_PARSE"
	ErrManifestWrite ErrorCode = "MANIFEST_WRITE"

	// Config errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// FileSystem errors
	ErrFileAccess    ErrorCode = "FILE_ACCESS"
	ErrFileCreate    ErrorCode = "FILE_CREATE"
	ErrFileWrite     ErrorCode = "FILE_WRITE"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
)

// KitError is a structured error with a code, optional details, and an
// optional wrapped cause.
type KitError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *KitError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *KitError) Unwrap() error {
	return e.Wrapped
}

// Is matches two KitErrors by code.
func (e *KitError) Is(target error) bool {
	var targetErr *KitError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new KitError with the given code and message
func New(code ErrorCode, message string) *KitError {
	return &KitError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new KitError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *KitError {
	return &KitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a KitError
func Wrap(err error, code ErrorCode, message string) *KitError {
	if err == nil {
		return nil
	}
	return &KitError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *KitError {
	if err == nil {
		return nil
	}
	return &KitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *KitError) WithDetail(key string, value interface{}) *KitError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var kitErr *KitError
	if errors.As(err, &kitErr) {
		return kitErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if
// the error is not a KitError.
func GetErrorCode(err error) ErrorCode {
	var kitErr *KitError
	if errors.As(err, &kitErr) {
		return kitErr.Code
	}
	return ErrUnknown
}

// IsResolutionError reports whether the error belongs to the
// resolution phase (fail-closed, exit code 1, no mutation).
func IsResolutionError(err error) bool {
	switch GetErrorCode(err) {
	case ErrUnknownPrefix, ErrMissingSource, ErrAmbiguousRef,
		ErrCyclicBundle, ErrBundleNotFound, ErrDuplicateTarget:
		return true
	}
	return false
}

// Package errors provides standardized error handling for the resolution core.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Provider errors are caught at the tier-execution boundary and turned
	// into failed extraction results; they never cross the tier router.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderTimeout     ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderParseError  ErrorCode = "PROVIDER_PARSE_ERROR"

	// Store errors propagate to the caller of Resolve; "lookup failed" is a
	// different outcome than "no canonical dish exists".
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	// Cache errors are logged and swallowed everywhere.
	ErrCodeCacheError ErrorCode = "CACHE_ERROR"

	// Reserved: similarity ties are currently broken by store ordering.
	ErrCodeAmbiguousMatch ErrorCode = "AMBIGUOUS_MATCH"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewProviderUnavailableError creates a retryable provider connectivity error.
func NewProviderUnavailableError(provider string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeProviderUnavailable,
		Message:   "OCR provider cannot be reached or is unconfigured",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a retryable provider deadline error.
func NewProviderTimeoutError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   "OCR provider call exceeded its deadline",
		Retryable: true,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderParseError creates a non-retryable extraction parse error.
func NewProviderParseError(provider string, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderParseError,
		Message:   "OCR provider returned output that could not be interpreted",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable canonical/modifier lookup error.
func NewStoreUnavailableError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Canonical dish store lookup failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheError creates a non-fatal cache access error.
func NewCacheError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeCacheError,
		Message:   "Cache store unreachable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the error code from err, or "" if it is not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsStoreUnavailable reports whether err represents a failed store lookup.
func IsStoreUnavailable(err error) bool {
	return CodeOf(err) == ErrCodeStoreUnavailable
}

// IsProviderTimeout reports whether err represents a provider deadline miss.
func IsProviderTimeout(err error) bool {
	return CodeOf(err) == ErrCodeProviderTimeout
}

// GetRetryCount returns how many times an error code should be retried before
// it is surfaced as terminal.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeProviderTimeout:
		return 3
	case ErrCodeProviderUnavailable:
		return 1
	default:
		return 0
	}
}

// GetErrorCategory groups error codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeProviderUnavailable, ErrCodeProviderTimeout, ErrCodeProviderParseError:
		return "provider"
	case ErrCodeStoreUnavailable:
		return "store"
	case ErrCodeCacheError:
		return "cache"
	case ErrCodeAmbiguousMatch:
		return "matching"
	default:
		return "internal"
	}
}

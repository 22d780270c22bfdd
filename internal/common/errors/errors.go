// Package errors provides standardized error handling for the reply pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Caller input problems. Surface as 4xx with no pipeline execution.
	ErrCodeInputInvalid ErrorCode = "INPUT_INVALID"

	// Collaborator problems recovered inside the pipeline.
	ErrCodeOrderLookupFailed  ErrorCode = "ORDER_LOOKUP_FAILED"
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"

	// The only fatal condition in normal operation: every applicable
	// generation tier failed.
	ErrCodeBackendsExhausted ErrorCode = "BACKENDS_EXHAUSTED"

	// Accounting failures are logged and swallowed, never surfaced.
	ErrCodeAccountingWriteFailed ErrorCode = "ACCOUNTING_WRITE_FAILED"

	// Startup-time problems.
	ErrCodeRulesInvalid             ErrorCode = "RULES_INVALID"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
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

// ==========================
// 2. Error Constructors
// ==========================

// NewInputInvalidError creates a non-retryable caller input error.
func NewInputInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputInvalid,
		Message:   "Invalid request input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrderLookupFailedError creates a retryable order lookup error.
func NewOrderLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOrderLookupFailed,
		Message:   "Order facts lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendUnavailableError creates a retryable generation backend error.
func NewBackendUnavailableError(tier string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendUnavailable,
		Message:   "Text-generation backend unavailable",
		Details:   fmt.Sprintf("tier: %s, error: %s", tier, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendsExhaustedError creates the terminal generation error.
func NewBackendsExhaustedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendsExhausted,
		Message:   "Reply generation is temporarily unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAccountingWriteFailedError creates a swallowed accounting error.
func NewAccountingWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAccountingWriteFailed,
		Message:   "Usage accounting write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRulesInvalidError creates a non-retryable rules document error.
func NewRulesInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRulesInvalid,
		Message:   "Rules document failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Package errors provides a lightweight structured error type (StoreError)
// for category-based classification across the cart, favorites, storage and
// sync layers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the subsystem a StoreError belongs to.
type ErrorCategory string

const (
	// User-facing input and mutation errors
	CategoryCart       ErrorCategory = "cart"
	CategoryFavorites  ErrorCategory = "favorites"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategoryCatalog  ErrorCategory = "catalog"
	CategoryCheckout ErrorCategory = "checkout"

	// Persistence and reconciliation errors
	CategoryStorage ErrorCategory = "storage"
	CategorySync    ErrorCategory = "sync"

	// Runtime and infrastructure errors
	CategoryConfig   ErrorCategory = "config"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ErrorCode identifies a specific failure class for programmatic handling.
type ErrorCode string

const (
	CodeProductNotFound     ErrorCode = "product_not_found"
	CodeOutOfStock          ErrorCode = "out_of_stock"
	CodeMalformedState      ErrorCode = "malformed_persisted_state"
	CodeStorageWriteFailure ErrorCode = "storage_write_failure"
	CodeCatalogUnavailable  ErrorCode = "catalog_unavailable"
	CodeCheckoutRejected    ErrorCode = "checkout_rejected"
	CodeConfigInvalid       ErrorCode = "config_invalid"
)

// StoreError is a structured error with category, code, retryability and context.
type StoreError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for StoreError.
type ContextFields map[string]any

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *StoreError) WithContext(key string, value any) *StoreError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new StoreError.
func New(category ErrorCategory, severity ErrorSeverity, code ErrorCode, message string) *StoreError {
	return &StoreError{
		Category: category,
		Severity: severity,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new StoreError that wraps an existing error.
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, code ErrorCode, message string) *StoreError {
	return &StoreError{
		Category: category,
		Severity: severity,
		Code:     code,
		Message:  message,
		Cause:    err,
	}
}

// AsStoreError extracts a StoreError from an error chain.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasCode reports whether err carries the given error code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	se, ok := AsStoreError(err)
	return ok && se.Code == code
}

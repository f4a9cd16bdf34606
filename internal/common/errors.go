package common

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeConfiguration for missing or invalid configuration, fatal for the run
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeAuth for failed helpdesk logins, fatal for the tenant
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeNavigation for timeouts and exhausted navigation fallbacks
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeExtraction for pages that cannot be read at all
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeStorage for storage/persistence errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypePublish for CSV and spreadsheet output errors
	ErrorTypePublish ErrorType = "publish"
	// ErrorTypeInternal for internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// CollectorError represents a structured error with context
type CollectorError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *CollectorError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *CollectorError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *CollectorError) WithContext(key string, value interface{}) *CollectorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *CollectorError) WithCause(cause error) *CollectorError {
	e.Cause = cause
	return e
}

// WithDetails sets the details text
func (e *CollectorError) WithDetails(details string) *CollectorError {
	e.Details = details
	return e
}

// NewError creates a new CollectorError
func NewError(errorType ErrorType, code, message string) *CollectorError {
	return &CollectorError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *CollectorError {
	return NewError(ErrorTypeConfiguration, code, message)
}

// NewAuthError creates an authentication error
func NewAuthError(code, message string) *CollectorError {
	return NewError(ErrorTypeAuth, code, message)
}

// NewNavigationError creates a navigation error
func NewNavigationError(code, message string) *CollectorError {
	return NewError(ErrorTypeNavigation, code, message)
}

// NewExtractionError creates an extraction error
func NewExtractionError(code, message string) *CollectorError {
	return NewError(ErrorTypeExtraction, code, message)
}

// NewStorageError creates a storage error
func NewStorageError(code, message string) *CollectorError {
	return NewError(ErrorTypeStorage, code, message)
}

// NewPublishError creates an output error
func NewPublishError(code, message string) *CollectorError {
	return NewError(ErrorTypePublish, code, message)
}

// NewInternalError creates an internal system error
func NewInternalError(code, message string) *CollectorError {
	return NewError(ErrorTypeInternal, code, message)
}

// WrapError wraps an existing error with CollectorError context
func WrapError(err error, errorType ErrorType, code, message string) *CollectorError {
	return &CollectorError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     err,
	}
}

// IsErrorType reports whether err carries a CollectorError of the given type
func IsErrorType(err error, errorType ErrorType) bool {
	var ce *CollectorError
	if errors.As(err, &ce) {
		return ce.Type == errorType
	}
	return false
}

package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeInternal   ErrorType = "internal"
)

// FacetError is a structured error type with context.
type FacetError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	Recoverable bool
}

// Error implements the error interface.
func (e *FacetError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *FacetError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *FacetError) Is(target error) bool {
	var t *FacetError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *FacetError) WithContext(key string, value interface{}) *FacetError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *FacetError) WithComponent(component string) *FacetError {
	e.Component = component

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *FacetError {
	return &FacetError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *FacetError {
	return &FacetError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *FacetError {
	return &FacetError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewRenderError creates an error for a render that could not complete.
// The request fails, the process keeps serving.
func NewRenderError(code, message string, cause error) *FacetError {
	return &FacetError{
		Type:        ErrorTypeRender,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *FacetError {
	return &FacetError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Error recovery and handling utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var fe *FacetError
	if errors.As(err, &fe) {
		return fe.Recoverable
	}

	return false
}

// IsInternal reports whether err is an internal invariant violation.
func IsInternal(err error) bool {
	var fe *FacetError
	if errors.As(err, &fe) {
		return fe.Type == ErrorTypeInternal
	}

	return false
}

// IsRenderError checks if an error comes from a failed render.
func IsRenderError(err error) bool {
	var fe *FacetError
	if errors.As(err, &fe) {
		return fe.Type == ErrorTypeRender
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error with appropriate logging.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var fe *FacetError
	if !errors.As(err, &fe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch fe.Type {
	case ErrorTypeValidation, ErrorTypeRender:
		h.logger.Warn(ctx, fe, "Request failed",
			"type", fe.Type,
			"code", fe.Code,
			"component", fe.Component)
	default:
		h.logger.Error(ctx, fe, "Error occurred",
			"type", fe.Type,
			"code", fe.Code,
			"component", fe.Component)
	}
}

// Common error codes.
const (
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeBundleInvalid    = "ERR_BUNDLE_INVALID"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeInvariant        = "ERR_INVARIANT"
	ErrCodeRateLimited      = "ERR_RATE_LIMITED"
	ErrCodeRenderFailed     = "ERR_RENDER_FAILED"
	ErrCodeURLComposition   = "ERR_URL_COMPOSITION"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
)

// Helper functions for common errors

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path string) *FacetError {
	return NewValidationError(ErrCodeInvalidPath, "invalid path: "+path)
}

// ErrRenderFailed wraps the cause of a failed page render.
func ErrRenderFailed(path string, cause error) *FacetError {
	return NewRenderError(ErrCodeRenderFailed, "render failed for "+path, cause)
}

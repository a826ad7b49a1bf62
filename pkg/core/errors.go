package core

import (
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Is reports whether target is an ExecutionError with the same code, so
// copies made with WithCause/WithMessage still match the predefined values.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Predefined errors
var (
	// Validation errors
	ErrInvalidArgument = &ExecutionError{
		Category: ErrCategoryValidation,
		Code:     "invalid_argument",
		Message:  "invalid argument",
	}
	ErrEmptySelector = &ExecutionError{
		Category: ErrCategoryValidation,
		Code:     "empty_selector",
		Message:  "selector requires one of text, resourceId or className",
	}

	// Resolution errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryResolution,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrNoActiveWindow = &ExecutionError{
		Category: ErrCategoryResolution,
		Code:     "no_active_window",
		Message:  "no active window",
	}

	// Action errors
	ErrActionFailed = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "action_failed",
		Message:  "operation failed",
	}
	ErrNotEditable = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "not_editable",
		Message:  "element is not editable",
	}
	ErrCaptureFailed = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "capture_failed",
		Message:  "screen capture failed",
	}
	ErrUnsupported = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "unsupported",
		Message:  "operation not supported by backend",
	}

	// Protocol errors
	ErrInvalidSession = &ExecutionError{
		Category: ErrCategoryProtocol,
		Code:     "invalid_session",
		Message:  "invalid session id",
	}
	ErrUnknownCommand = &ExecutionError{
		Category: ErrCategoryProtocol,
		Code:     "unknown_command",
		Message:  "unknown command",
	}
	ErrMalformedRequest = &ExecutionError{
		Category: ErrCategoryProtocol,
		Code:     "malformed_request",
		Message:  "malformed request body",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

package core

import (
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: node_not_found, action_failed, etc.
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

// Is matches another ExecutionError with the same code, so copies made by
// the With* helpers still match the predefined error.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	return ok && t.Code != "" && t.Code == e.Code
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

// Predefined errors
var (
	// Parse errors
	ErrNoQueries = &ExecutionError{
		Category: ErrCategoryParse,
		Code:     "no_queries",
		Message:  "step has no usable node query or matchers",
	}

	// Resolution errors
	ErrNodeNotFound = &ExecutionError{
		Category: ErrCategoryResolution,
		Code:     "node_not_found",
		Message:  "no node matched the step",
	}
	ErrNoRoot = &ExecutionError{
		Category: ErrCategoryResolution,
		Code:     "no_root",
		Message:  "no active window root",
	}

	// Action errors
	ErrActionFailed = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "action_failed",
		Message:  "platform action failed",
	}
	ErrMissingText = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "missing_text",
		Message:  "input step has no text",
	}
	ErrUnknownAction = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "unknown_action",
		Message:  "unknown action",
	}
	ErrInterrupted = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "interrupted",
		Message:  "wait interrupted",
	}

	// Structural errors
	ErrNilPlan = &ExecutionError{
		Category: ErrCategoryStructural,
		Code:     "nil_plan",
		Message:  "plan is nil",
	}
	ErrEmptyPlan = &ExecutionError{
		Category: ErrCategoryStructural,
		Code:     "empty_plan",
		Message:  "plan has no steps",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingRequired = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_required",
		Message:  "missing required field",
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

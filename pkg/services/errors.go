// Package services holds the workflow, node test, and code template
// operations behind the API.
package services

import (
	"errors"
	"fmt"

	"github.com/genagent/agentflow/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidSortField     = errors.New("invalid sort field")
	ErrInvalidSortOrder     = errors.New("invalid sort order")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrInvalidWorkflow      = errors.New("invalid workflow")

	// Node test errors (400 Bad Request).
	ErrUnknownToolKind   = errors.New("unknown tool kind")
	ErrInvalidToolConfig = errors.New("invalid tool configuration")
	ErrInvalidToolInputs = errors.New("invalid tool inputs")

	// ErrWorkflowNotFound is returned when a workflow is not found (404).
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string   // Operation name
	Code    string   // Error code for API responses
	Message string   // Human-readable message
	Details []string // Individual problems, when there are several
	Err     error    // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrInvalidWorkflow) ||
		errors.Is(err, ErrUnknownToolKind) ||
		errors.Is(err, ErrInvalidToolConfig) ||
		errors.Is(err, ErrInvalidToolInputs)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return persistence.IsWorkflowNotFound(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error, details ...string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Details: details,
		Err:     err,
	}
}

// ErrorDetails returns the individual problems carried by err, if any.
func ErrorDetails(err error) []string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Details
	}

	return nil
}

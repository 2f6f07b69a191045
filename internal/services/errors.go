package services

import (
	"errors"
	"fmt"

	"harborview/internal/validation"
)

// ErrorType represents the type of error
type ErrorType int

const (
	ErrTypeBadRequest ErrorType = iota
	ErrTypeDuplicate
	ErrTypeUnauthorized
	ErrTypeForbidden
	ErrTypeNotFound
	ErrTypeInternal
)

// ServiceError is a standardized error for all services. The transport
// layer maps Type to an HTTP status; Violations carries the itemized
// field errors for validation failures.
type ServiceError struct {
	Type       ErrorType
	Message    string
	Violations validation.Violations
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a bad request error carrying the full list
// of field violations
func NewValidationError(violations validation.Violations) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeBadRequest,
		Message:    "validation failed",
		Violations: violations,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeBadRequest,
		Message: message,
	}
}

// NewDuplicateError creates the distinct duplicate-submission error
func NewDuplicateError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeDuplicate,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeForbidden,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeNotFound,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeInternal,
		Message: message,
		Err:     err,
	}
}

// AsServiceError extracts a ServiceError from an error chain
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

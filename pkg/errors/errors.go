package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeConflict       ErrorType = "CONFLICT"
	ErrorTypeInternal       ErrorType = "INTERNAL"
	ErrorTypeNetworkFailure ErrorType = "NETWORK_FAILURE"
	ErrorTypeTimeout        ErrorType = "TIMEOUT"
	ErrorTypeLockedEntity   ErrorType = "LOCKED_ENTITY"
	ErrorTypeEmptyChain     ErrorType = "EMPTY_CHAIN"
	ErrorTypeSaveConflict   ErrorType = "SAVE_CONFLICT"
	ErrorTypeCancelled      ErrorType = "CANCELLED"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	// NodeIDs lists the nodes the error refers to, when known.
	NodeIDs []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if len(e.NodeIDs) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(e.NodeIDs, ","))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewConflict creates a conflict error, used for duplicate identities
func NewConflict(message string) error {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// NewNetworkFailure reports a transport failure or a non-success response
// from a remote collaborator.
func NewNetworkFailure(message string, err error) error {
	return &AppError{Type: ErrorTypeNetworkFailure, Message: message, Err: err}
}

// NewTimeout reports an operation that exceeded its deadline.
func NewTimeout(message string, err error) error {
	return &AppError{Type: ErrorTypeTimeout, Message: message, Err: err}
}

// NewLockedEntity reports an attempt to delete or re-lock locked nodes.
func NewLockedEntity(message string, nodeIDs ...string) error {
	return &AppError{Type: ErrorTypeLockedEntity, Message: message, NodeIDs: nodeIDs}
}

// NewEmptyChain reports a chained query against a node with no ancestors.
func NewEmptyChain(nodeID string) error {
	return &AppError{Type: ErrorTypeEmptyChain, Message: "no chain found", NodeIDs: []string{nodeID}}
}

// NewSaveConflict reports a save request that was dropped because another
// save is in flight or the minimum interval has not elapsed.
func NewSaveConflict(message string) error {
	return &AppError{Type: ErrorTypeSaveConflict, Message: message}
}

// NewCancelled reports an operation cancelled by the user.
func NewCancelled(message string) error {
	return &AppError{Type: ErrorTypeCancelled, Message: message}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
			NodeIDs: appErr.NodeIDs,
		}
	}

	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// TypeOf returns the ErrorType of err, or an empty type when err is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Type checking functions

func is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return is(err, ErrorTypeValidation) }

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return is(err, ErrorTypeNotFound) }

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool { return is(err, ErrorTypeConflict) }

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool { return is(err, ErrorTypeInternal) }

// IsNetworkFailure checks if an error is a network failure
func IsNetworkFailure(err error) bool { return is(err, ErrorTypeNetworkFailure) }

// IsTimeout checks if an error is a timeout
func IsTimeout(err error) bool { return is(err, ErrorTypeTimeout) }

// IsLockedEntity checks if an error is a locked entity violation
func IsLockedEntity(err error) bool { return is(err, ErrorTypeLockedEntity) }

// IsEmptyChain checks if an error is an empty chain error
func IsEmptyChain(err error) bool { return is(err, ErrorTypeEmptyChain) }

// IsSaveConflict checks if an error is a dropped save
func IsSaveConflict(err error) bool { return is(err, ErrorTypeSaveConflict) }

// IsCancelled checks if an error is a user cancellation
func IsCancelled(err error) bool { return is(err, ErrorTypeCancelled) }

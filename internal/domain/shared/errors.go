package shared

import "errors"

// ErrorKind classifies a domain error for callers that need to decide how to
// surface it (HTTP status, retry, logging level).
type ErrorKind string

const (
	KindValidation         ErrorKind = "VALIDATION"
	KindPermissionDenied   ErrorKind = "PERMISSION_DENIED"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindConflict           ErrorKind = "CONFLICT"
	KindTransient          ErrorKind = "TRANSIENT"
	KindInvariantViolation ErrorKind = "INVARIANT_VIOLATION"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error. The kind is derived from the code
// for the well-known codes and defaults to validation otherwise.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    kindForCode(code),
	}
}

// NewValidationError creates a caller-fault error whose message is shown as is.
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: "VALIDATION_ERROR", Message: message, Kind: KindValidation}
}

// NewPermissionDenied creates an authorization failure.
func NewPermissionDenied(message string) *DomainError {
	return &DomainError{Code: "FORBIDDEN", Message: message, Kind: KindPermissionDenied}
}

// NewNotFound creates a lookup failure. Cross-company lookups must use this
// as well so existence is not leaked.
func NewNotFound(message string) *DomainError {
	return &DomainError{Code: "NOT_FOUND", Message: message, Kind: KindNotFound}
}

// NewConflict creates a state-machine precondition failure.
func NewConflict(message string) *DomainError {
	return &DomainError{Code: "CONFLICT", Message: message, Kind: KindConflict}
}

// NewTransient creates a retryable failure.
func NewTransient(message string) *DomainError {
	return &DomainError{Code: "BUSY", Message: message, Kind: KindTransient}
}

// NewInvariantViolation creates an error that indicates a bug. Its message is
// logged, never shown to users.
func NewInvariantViolation(message string) *DomainError {
	return &DomainError{Code: "INVARIANT_VIOLATION", Message: message, Kind: KindInvariantViolation}
}

// Common domain errors
var (
	ErrNotFound            = NewNotFound("Resource not found")
	ErrAlreadyExists       = &DomainError{Code: "ALREADY_EXISTS", Message: "Resource already exists", Kind: KindConflict}
	ErrInvalidInput        = &DomainError{Code: "INVALID_INPUT", Message: "Invalid input provided", Kind: KindValidation}
	ErrForbidden           = NewPermissionDenied("Access to this resource is forbidden")
	ErrInvalidState        = &DomainError{Code: "INVALID_STATE", Message: "Operation not allowed in current state", Kind: KindConflict}
	ErrNoActiveCompany     = &DomainError{Code: "NO_ACTIVE_COMPANY", Message: "No active company selected.", Kind: KindPermissionDenied}
	ErrBusy                = NewTransient("Database is busy. Please try again in a moment.")
	ErrConcurrencyConflict = &DomainError{Code: "CONCURRENCY_CONFLICT", Message: "Resource was modified by another process", Kind: KindConflict}
)

// KindOf returns the kind of err, or an empty kind when err is not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func kindForCode(code string) ErrorKind {
	switch code {
	case "NOT_FOUND":
		return KindNotFound
	case "FORBIDDEN", "UNAUTHORIZED", "NO_ACTIVE_COMPANY":
		return KindPermissionDenied
	case "CONFLICT", "INVALID_STATE", "ALREADY_EXISTS", "CONCURRENCY_CONFLICT":
		return KindConflict
	case "BUSY":
		return KindTransient
	case "INVARIANT_VIOLATION":
		return KindInvariantViolation
	default:
		return KindValidation
	}
}

package dto

import (
	"errors"
	"net/http"

	"github.com/voucherdesk/backend/internal/domain/shared"
)

// Error codes of the envelope
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNoCompany    = "ERR_NO_ACTIVE_COMPANY"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeBusy         = "ERR_BUSY"
	ErrCodeRateLimited  = "ERR_RATE_LIMITED"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeInternal     = "ERR_INTERNAL"
)

// Messages shown in place of details that must not leak
const (
	MessageBusy     = "The server is busy. Please try again in a moment."
	MessageInternal = "internal error"
)

// kindStatus maps domain error kinds to HTTP statuses
var kindStatus = map[shared.ErrorKind]int{
	shared.KindValidation:         http.StatusBadRequest,
	shared.KindPermissionDenied:   http.StatusForbidden,
	shared.KindNotFound:           http.StatusNotFound,
	shared.KindConflict:           http.StatusConflict,
	shared.KindTransient:          http.StatusServiceUnavailable,
	shared.KindInvariantViolation: http.StatusInternalServerError,
}

var kindCode = map[shared.ErrorKind]string{
	shared.KindValidation:         ErrCodeValidation,
	shared.KindPermissionDenied:   ErrCodeForbidden,
	shared.KindNotFound:           ErrCodeNotFound,
	shared.KindConflict:           ErrCodeConflict,
	shared.KindTransient:          ErrCodeBusy,
	shared.KindInvariantViolation: ErrCodeInternal,
}

// StatusForKind returns the HTTP status of a domain error kind. Unknown kinds
// are internal errors.
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError converts err to its status and public error info. internal is
// true when the real cause was withheld and must be logged by the caller.
func FromError(err error, requestID string) (status int, info ErrorInfo, internal bool) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError,
			ErrorInfo{Code: ErrCodeInternal, Message: MessageInternal, RequestID: requestID},
			true
	}

	status = StatusForKind(de.Kind)
	code, ok := kindCode[de.Kind]
	if !ok {
		code = ErrCodeInternal
	}
	if de.Code == shared.ErrNoActiveCompany.Code {
		code = ErrCodeNoCompany
	}

	info = ErrorInfo{Code: code, Message: de.Message, RequestID: requestID}
	switch de.Kind {
	case shared.KindTransient:
		info.Message = MessageBusy
	case shared.KindInvariantViolation:
		info.Message = MessageInternal
		internal = true
	default:
		if status == http.StatusInternalServerError {
			info.Message = MessageInternal
			internal = true
		}
	}
	return status, info, internal
}

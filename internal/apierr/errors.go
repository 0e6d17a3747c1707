// Package apierr defines the closed set of errors the Hitbim API can produce
// and maps HTTP status codes onto them.
//
// Canonical errors are package-level values: the same status always yields
// the same pointer, so callers may match them with errors.Is. Statuses that
// have no canonical kind produce an ad-hoc *Error of KindOther.
package apierr

import (
	"fmt"
	"net/http"
)

// Kind is the machine-readable tag of an API error.
type Kind string

const (
	KindInvalidUser       Kind = "INVALID_USER"
	KindTokenExpired      Kind = "EXPIRED_AUTH"
	KindInvalidAuth       Kind = "INVALID_AUTH"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidPermission Kind = "INVALID_PERMISSION"
	KindNoResponse        Kind = "NO_RESPONSE"
	KindInternalError     Kind = "INTERNAL_ERROR"
	KindRequiredAuth      Kind = "REQUIRED_AUTH"
	KindOther             Kind = "OTHER"
)

// Error is a normalized API failure.
//
// Data holds whatever payload the server sent back (decoded JSON when
// possible). Details is free-form diagnostic text attached by the caller.
type Error struct {
	Kind    Kind
	Status  int
	Msg     string
	Desc    string
	Data    any
	Details string
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s (%d): %s", e.Msg, e.Status, e.Desc)
	if e.Details != "" {
		s += ": " + e.Details
	}
	return s
}

// Is reports whether target is an *Error of the same kind. Ad-hoc errors
// additionally need the same status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if e.Kind == KindOther {
		return e.Status == t.Status
	}
	return true
}

// WithDetails returns a copy of e carrying details. The receiver is left
// untouched, so it is safe to call on canonical errors.
func (e *Error) WithDetails(details string) *Error {
	c := *e
	c.Details = details
	return &c
}

var (
	InvalidUser = &Error{
		Kind:   KindInvalidUser,
		Status: http.StatusBadRequest,
		Msg:    string(KindInvalidUser),
		Desc:   "Authentication failed. Please check your account and password.",
	}
	TokenExpired = &Error{
		Kind:   KindTokenExpired,
		Status: http.StatusUnauthorized,
		Msg:    string(KindTokenExpired),
		Desc:   "Auth token has been expired. Please authenticate again.",
	}
	InvalidAuth = &Error{
		Kind:   KindInvalidAuth,
		Status: http.StatusForbidden,
		Msg:    string(KindInvalidAuth),
		Desc:   "Valid auth token is required. Please provide a valid auth token along with request.",
	}
	NotFound = &Error{
		Kind:   KindNotFound,
		Status: http.StatusNotFound,
		Msg:    string(KindNotFound),
		Desc:   "The resource referenced by request does not exist.",
	}
	InvalidPermission = &Error{
		Kind:   KindInvalidPermission,
		Status: http.StatusMethodNotAllowed,
		Msg:    string(KindInvalidPermission),
		Desc:   "Permission denied. Current user does not have required permissions for this resource.",
	}
	NoResponse = &Error{
		Kind:   KindNoResponse,
		Status: http.StatusRequestTimeout,
		Msg:    string(KindNoResponse),
		Desc:   "Request was successfully sent but no response was received.",
	}
	InternalError = &Error{
		Kind:   KindInternalError,
		Status: http.StatusInternalServerError,
		Msg:    string(KindInternalError),
		Desc:   "Something went wrong on server. Please try again later.",
	}
	RequiredAuth = &Error{
		Kind:   KindRequiredAuth,
		Status: http.StatusNetworkAuthenticationRequired,
		Msg:    string(KindRequiredAuth),
		Desc:   "Authentication is required. Please verify authorization first.",
	}
)

// New builds an ad-hoc error for a status that has no canonical kind.
func New(status int, statusText string, data any) *Error {
	if statusText == "" {
		statusText = http.StatusText(status)
	}
	return &Error{
		Kind:   KindOther,
		Status: status,
		Msg:    statusText,
		Desc:   fmt.Sprintf("request failed with status code %d", status),
		Data:   data,
	}
}

// FromStatus classifies an HTTP status. It returns nil for 200-203, the
// canonical error for known statuses, and an ad-hoc error otherwise.
func FromStatus(status int, statusText string, data any) *Error {
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNonAuthoritativeInfo:
		return nil
	case http.StatusBadRequest:
		return InvalidUser
	case http.StatusUnauthorized:
		return TokenExpired
	case http.StatusForbidden:
		return InvalidAuth
	case http.StatusNotFound:
		return NotFound
	case http.StatusMethodNotAllowed:
		return InvalidPermission
	case http.StatusRequestTimeout:
		return NoResponse
	case http.StatusInternalServerError:
		return InternalError
	case http.StatusNetworkAuthenticationRequired:
		return RequiredAuth
	default:
		return New(status, statusText, data)
	}
}

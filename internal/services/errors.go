package services

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a service failure. The kind decides the error code
// and HTTP status a caller sees.
type ErrorKind int

const (
	KindMissingField ErrorKind = iota + 1
	KindInvalidFormat
	KindInvalidField
	KindUnsupportedGrant
	KindUserNotFound
	KindAccountInactive
	KindEmailNotVerified
	KindInvalidCredentials
	KindInvalidToken
	KindNoTokenProvided
	KindForbidden
	KindEmailExists
	KindNotImplemented
	KindStoreFailure
	KindUpdateFailed
	KindDeleteFailed
	KindRequestFailed
)

// Error codes returned to clients.
const (
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeInvalidFieldValue    = "INVALID_FIELD_VALUE"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeUserInactive         = "USER_INACTIVE"
	CodeEmailNotVerified     = "EMAIL_NOT_VERIFIED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeUnauthorised         = "UNAUTHORISED"
	CodeNoToken              = "NO_TOKEN"
	CodeForbidden            = "FORBIDDEN"
	CodeEmailAlreadyExists   = "EMAIL_ALREADY_EXISTS"
	CodeNotImplemented       = "NOT_IMPLEMENTED"
	CodeUserReadFailed       = "USER_READ_FAILED"
	CodeUserUpdateFailed     = "USER_UPDATE_FAILED"
	CodeUserDeleteFailed     = "USER_DELETE_FAILED"
	CodeRequestFailed        = "REQUEST_FAILED"
)

var kindInfo = map[ErrorKind]struct {
	code   string
	status int
}{
	KindMissingField:       {CodeMissingRequiredField, http.StatusBadRequest},
	KindInvalidFormat:      {CodeInvalidFieldValue, http.StatusBadRequest},
	KindInvalidField:       {CodeInvalidFieldValue, http.StatusBadRequest},
	KindUnsupportedGrant:   {CodeInvalidFieldValue, http.StatusBadRequest},
	KindUserNotFound:       {CodeUserNotFound, http.StatusNotFound},
	KindAccountInactive:    {CodeUserInactive, http.StatusNotFound},
	KindEmailNotVerified:   {CodeEmailNotVerified, http.StatusForbidden},
	KindInvalidCredentials: {CodeInvalidCredentials, http.StatusUnauthorized},
	KindInvalidToken:       {CodeUnauthorised, http.StatusUnauthorized},
	KindNoTokenProvided:    {CodeNoToken, http.StatusUnauthorized},
	KindForbidden:          {CodeForbidden, http.StatusForbidden},
	KindEmailExists:        {CodeEmailAlreadyExists, http.StatusConflict},
	KindNotImplemented:     {CodeNotImplemented, http.StatusNotImplemented},
	KindStoreFailure:       {CodeUserReadFailed, http.StatusInternalServerError},
	KindUpdateFailed:       {CodeUserUpdateFailed, http.StatusInternalServerError},
	KindDeleteFailed:       {CodeUserDeleteFailed, http.StatusInternalServerError},
	KindRequestFailed:      {CodeRequestFailed, http.StatusInternalServerError},
}

// Error is a typed service failure with a message safe to show to clients.
// Err keeps the underlying cause for logging and is never rendered.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates an Error of the given kind that keeps err as its cause.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the errorCode reported to clients.
func (e *Error) Code() string {
	if info, ok := kindInfo[e.Kind]; ok {
		return info.code
	}
	return CodeRequestFailed
}

// Status is the HTTP status reported to clients.
func (e *Error) Status() int {
	if info, ok := kindInfo[e.Kind]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of a service error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return 0
}

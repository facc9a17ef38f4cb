// Package apperr defines the coded errors returned by the service layer.
// Handlers translate the Kind of an error into a transport status.
package apperr

import (
	"errors"
	"fmt"
)

// Kind groups error codes by how the caller should react.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindAccessDenied Kind = "FORBIDDEN"
	KindValidation   Kind = "BAD_REQUEST"
	KindUnavailable  Kind = "UNAVAILABLE"
	KindInternal     Kind = "INTERNAL"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeNotFound              Code = "NOT_FOUND"
	CodeConflict              Code = "CONFLICT"
	CodeInvalidState          Code = "INVALID_STATE"
	CodeDuplicateRequest      Code = "DUPLICATE_REQUEST"
	CodeLimitReached          Code = "LIMIT_REACHED"
	CodeModerationNotRequired Code = "MODERATION_NOT_REQUIRED"
	CodeAccessDenied          Code = "ACCESS_DENIED"
	CodeValidation            Code = "VALIDATION"
	CodeUnavailable           Code = "UNAVAILABLE"
	CodeInternal              Code = "INTERNAL"
)

// Kind returns the kind a code belongs to.
func (c Code) Kind() Kind {
	switch c {
	case CodeNotFound:
		return KindNotFound
	case CodeConflict, CodeInvalidState, CodeDuplicateRequest, CodeLimitReached, CodeModerationNotRequired:
		return KindConflict
	case CodeAccessDenied:
		return KindAccessDenied
	case CodeValidation:
		return KindValidation
	case CodeUnavailable:
		return KindUnavailable
	default:
		return KindInternal
	}
}

// Error is a domain error carrying a code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Kind returns the kind of the error's code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// New creates an error with a code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with a code that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NotFound reports a missing entity.
func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, format, args...)
}

// Conflict reports a request that clashes with current state.
func Conflict(format string, args ...any) *Error {
	return New(CodeConflict, format, args...)
}

// InvalidState reports an operation the entity's lifecycle state forbids.
func InvalidState(format string, args ...any) *Error {
	return New(CodeInvalidState, format, args...)
}

// AccessDenied reports an actor acting on something it does not own.
func AccessDenied(format string, args ...any) *Error {
	return New(CodeAccessDenied, format, args...)
}

// Validation reports malformed input.
func Validation(format string, args ...any) *Error {
	return New(CodeValidation, format, args...)
}

// Sentinels usable as errors.Is targets.
var (
	ErrNotFound              = &Error{Code: CodeNotFound}
	ErrConflict              = &Error{Code: CodeConflict}
	ErrInvalidState          = &Error{Code: CodeInvalidState}
	ErrDuplicateRequest      = &Error{Code: CodeDuplicateRequest}
	ErrLimitReached          = &Error{Code: CodeLimitReached}
	ErrModerationNotRequired = &Error{Code: CodeModerationNotRequired}
	ErrAccessDenied          = &Error{Code: CodeAccessDenied}
	ErrValidation            = &Error{Code: CodeValidation}
)

// KindOf returns the kind of err, or KindInternal when err carries no code.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindInternal
}

// CodeOf returns the code of err, or CodeInternal when err carries no code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Package apperr defines the error taxonomy shared by the content and quiz pipelines.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindInvalidInput         Kind = "invalid_input"
	KindInvalidState         Kind = "invalid_state"
	KindUpstream             Kind = "upstream_generation_failure"
	KindConfigurationMissing Kind = "configuration_missing"
	KindUnauthorized         Kind = "unauthorized"
	KindForbidden            Kind = "forbidden"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrInvalidState         = &Error{Kind: KindInvalidState}
	ErrUpstream             = &Error{Kind: KindUpstream}
	ErrConfigurationMissing = &Error{Kind: KindConfigurationMissing}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
	ErrForbidden            = &Error{Kind: KindForbidden}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, nil, format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return New(KindInvalidInput, nil, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return New(KindInvalidState, nil, format, args...)
}

func ConfigurationMissing(format string, args ...any) *Error {
	return New(KindConfigurationMissing, nil, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, nil, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, nil, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the client-facing message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return ""
}

// Package apperr defines the error taxonomy shared by the checkout domains.
// Domain packages declare sentinels with these constructors and the HTTP
// layer maps them by Kind.
package apperr

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindConfiguration Kind = "configuration_error"
	KindNotFound      Kind = "not_found"
	KindProcessor     Kind = "processor_error"
	KindConflict      Kind = "conflict"
	KindRateLimited   Kind = "rate_limited"
	KindInternal      Kind = "internal_error"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error is a classified error. Code is safe to return to callers; Err holds
// the underlying cause and is only ever logged.
type Error struct {
	Kind   Kind
	Code   string
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches sentinels by kind and code so a wrapped copy still compares
// equal to the declared sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil || e == nil {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Wrap returns a copy of the sentinel carrying cause.
func (e *Error) Wrap(cause error) error {
	if e == nil {
		return cause
	}
	clone := *e
	clone.Err = cause
	return &clone
}

func Validation(code string) *Error {
	return &Error{Kind: KindValidation, Code: code, Fields: []FieldError{fieldFromCode(code)}}
}

// ValidationFields builds a validation error listing every rejected field.
func ValidationFields(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_request", Fields: fields}
}

func NotFound(code string) *Error {
	return &Error{Kind: KindNotFound, Code: code}
}

func Configuration(code string) *Error {
	return &Error{Kind: KindConfiguration, Code: code}
}

func Processor(code string) *Error {
	return &Error{Kind: KindProcessor, Code: code}
}

func Conflict(code string) *Error {
	return &Error{Kind: KindConflict, Code: code}
}

func RateLimited(code string) *Error {
	return &Error{Kind: KindRateLimited, Code: code}
}

func Internal(code string) *Error {
	return &Error{Kind: KindInternal, Code: code}
}

// KindOf returns the kind of the first classified error in the chain, or
// KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return KindInternal
}

// As returns the first classified error in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

func fieldFromCode(code string) FieldError {
	field := strings.TrimPrefix(code, "invalid_")
	if field == code {
		field = ""
	}
	return FieldError{Field: field, Code: code, Message: "invalid value"}
}

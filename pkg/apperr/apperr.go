// Package apperr defines the error kinds shared by the store, service and API
// layers. Lower layers attach a Kind; the API layer turns it into a stable
// code without exposing the wrapped cause.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	Internal               Kind = "INTERNAL"
	InvalidInput           Kind = "INVALID_INPUT"
	Unauthorized           Kind = "UNAUTHORIZED"
	Forbidden              Kind = "FORBIDDEN"
	NotFound               Kind = "NOT_FOUND"
	NotFoundOrUnauthorized Kind = "NOT_FOUND_OR_UNAUTHORIZED"
	DuplicateUsername      Kind = "DUPLICATE_USERNAME"
	AlreadyFollowing       Kind = "ALREADY_FOLLOWING"
	InvalidOperation       Kind = "INVALID_OPERATION"
	StoreUnavailable       Kind = "STORE_UNAVAILABLE"
	QueryError             Kind = "QUERY_ERROR"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for i, f := range e.Fields {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f.Field + " " + f.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Invalid builds an InvalidInput error carrying the rejected fields.
func Invalid(fields []FieldError) *Error {
	return &Error{Kind: InvalidInput, Message: "invalid input", Fields: fields}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FieldsOf returns the field errors attached to err's chain, if any.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// MessageOf returns the top-level message of the first *Error in the chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

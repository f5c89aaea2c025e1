// Package domainerrors carries typed, code-tagged errors from services to the
// transport layer. Services create them with New or Wrap; handlers translate the
// code to a status via pkg/platform/httputil.
package domainerrors

import (
	"errors"
)

// Code identifies a class of domain failure. Codes are stable strings and
// appear verbatim in the "error" field of API responses.
type Code string

const (
	CodeValidation    Code = "validation_error"
	CodeMissingFields Code = "missing_fields"
	CodeInvalidAction Code = "invalid_action"
	CodeBadRequest    Code = "bad_request"

	CodeDuplicateIdentity    Code = "duplicate_identity"
	CodeDuplicateApplication Code = "duplicate_application"
	CodeDuplicateCode        Code = "duplicate_code"
	CodeAlreadyCertified     Code = "already_certified"
	CodeConflict             Code = "conflict"

	CodeNotFound            Code = "not_found"
	CodeApplicationNotFound Code = "application_not_found"
	CodeMemberNotFound      Code = "member_not_found"

	CodeInvalidCredentials Code = "invalid_credentials"
	CodeForbidden          Code = "forbidden"

	CodeTimeout  Code = "timeout"
	CodeInternal Code = "internal_error"
)

// Category groups codes into the failure taxonomy callers reason about.
type Category string

const (
	CategoryValidation     Category = "validation"
	CategoryConflict       Category = "conflict"
	CategoryNotFound       Category = "not_found"
	CategoryAuthentication Category = "authentication"
	CategoryForbidden      Category = "forbidden"
	CategoryInternal       Category = "internal"
)

var categories = map[Code]Category{
	CodeValidation:           CategoryValidation,
	CodeMissingFields:        CategoryValidation,
	CodeInvalidAction:        CategoryValidation,
	CodeBadRequest:           CategoryValidation,
	CodeDuplicateIdentity:    CategoryConflict,
	CodeDuplicateApplication: CategoryConflict,
	CodeDuplicateCode:        CategoryConflict,
	CodeAlreadyCertified:     CategoryConflict,
	CodeConflict:             CategoryConflict,
	CodeNotFound:             CategoryNotFound,
	CodeApplicationNotFound:  CategoryNotFound,
	CodeMemberNotFound:       CategoryNotFound,
	CodeInvalidCredentials:   CategoryAuthentication,
	CodeForbidden:            CategoryForbidden,
	CodeTimeout:              CategoryInternal,
	CodeInternal:             CategoryInternal,
}

// Category returns the taxonomy bucket for the code. Unknown codes are internal.
func (c Code) Category() Category {
	if cat, ok := categories[c]; ok {
		return cat
	}
	return CategoryInternal
}

// Error is a domain error with a stable code and a human readable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a domain error without an underlying cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
// Returns nil when err is nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// As returns the outermost domain error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost domain error, or CodeInternal.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost domain error in the chain has the code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsCategory reports whether err belongs to the category.
func IsCategory(err error, cat Category) bool {
	return err != nil && CodeOf(err).Category() == cat
}

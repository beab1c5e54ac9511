// Package apperr holds the error taxonomy shared by both services. Every
// error that reaches a request handler is converted to a status code and a
// short public message through the metadata table below.
package apperr

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeNotFound            Code = "NOT_FOUND"
	CodeValidationFailed    Code = "VALIDATION_FAILED"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeDatastore           Code = "DATASTORE"
	CodeConflict            Code = "CONFLICT"
	CodeInternal            Code = "INTERNAL"
)

type Metadata struct {
	HTTPStatus    int
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeInvalidInput: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "Invalid request",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "Not found",
	},
	CodeValidationFailed: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "Validation failed",
	},
	CodeUpstreamUnavailable: {
		HTTPStatus:    http.StatusServiceUnavailable,
		PublicMessage: "Failed to communicate with StoreService",
	},
	CodeDatastore: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "Database operation failed",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "Duplicate request",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "Internal server error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code to err. The cause's text becomes the default details.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, details: err.Error(), cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

// Message returns the public message, falling back to the code's default.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	if e.message == "" {
		return MetadataFor(e.code).PublicMessage
	}
	return e.message
}

func (e *Error) Details() string {
	if e == nil {
		return ""
	}
	return e.details
}

func (e *Error) WithDetails(details string) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) HTTPStatus() int {
	return MetadataFor(e.Code()).HTTPStatus
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.Message(), e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.Message())
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// From converts any error into an *Error, treating untyped errors as internal.
func From(err error) *Error {
	if typed := As(err); typed != nil {
		return typed
	}
	return Wrap(CodeInternal, err, "")
}

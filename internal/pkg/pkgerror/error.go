package pkgerror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by stores for unknown keys.
var ErrNotFound = errors.New("resource not found")

// Type is the broad class of an error.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "server"
	case TypeBusiness:
		return "business"
	case TypeValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Code identifies what went wrong. Each code has a fixed HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeUnavailable is an upstream dependency (warehouse, OCR, model API)
	// that failed or refused the call.
	CodeUnavailable
)

type codeInfo struct {
	name   string
	status int
}

//nolint:gochecknoglobals // lookup table
var codes = map[Code]codeInfo{
	CodeInternal:      {"internal", http.StatusInternalServerError},
	CodeInvalidFormat: {"invalid_format", http.StatusBadRequest},
	CodeInvalidInput:  {"invalid_input", http.StatusUnprocessableEntity},
	CodeNotFound:      {"not_found", http.StatusNotFound},
	CodeConflict:      {"conflict", http.StatusConflict},
	CodeUnauthorized:  {"unauthorized", http.StatusUnauthorized},
	CodeForbidden:     {"forbidden", http.StatusForbidden},
	CodeTimeout:       {"timeout", http.StatusRequestTimeout},
	CodeUnavailable:   {"unavailable", http.StatusServiceUnavailable},
}

func (c Code) info() codeInfo {
	if ci, ok := codes[c]; ok {
		return ci
	}
	return codes[CodeInternal]
}

// String is the snake_case name sent to clients.
func (c Code) String() string { return c.info().name }

// Status is the HTTP status for c.
func (c Code) Status() int { return c.info().status }

// Error wraps a cause with a client-facing message and a code.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.code.String()
	}
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("%s/%s: %s (cause: %v)", e.errType, e.code, e.msg, e.err)
}

// Msg is the client-facing message.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

func (e *Error) Unwrap() error { return e.err }

func (e *Error) StatusCode() int { return e.code.Status() }

// Detail is the cause text that may be shown to clients. Server errors
// never expose their cause.
func (e *Error) Detail() string {
	if e.errType == TypeServer || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func newError(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer hides err behind a generic internal error.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness reports a rule violation such as a duplicate or a missing job.
func NewBusiness(msg string, code Code) error {
	return newError(nil, msg, TypeBusiness, code)
}

// NewInvalidInput reports a request that parsed but carries bad values.
func NewInvalidInput(err error) error {
	return newError(err, "validation error", TypeValidation, CodeInvalidInput)
}

// NewUnavailable reports a failing upstream service. An empty msg gets a
// generic one.
func NewUnavailable(err error, msg string) error {
	if msg == "" {
		msg = "upstream service unavailable"
	}
	return newError(err, msg, TypeServer, CodeUnavailable)
}

// NewInvalidFormat reports a request body that could not be parsed.
func NewInvalidFormat() error {
	return newError(nil, "invalid request body", TypeValidation, CodeInvalidFormat)
}

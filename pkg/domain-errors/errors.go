// Package domainerrors provides coded errors that services return and the
// transport layer translates into HTTP responses. Codes are part of the API
// contract; messages are safe to show to clients and must never leak whether
// an identifier exists.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
)

// Error is a value type so tests can compare with errors.Is against a freshly
// constructed instance.
type Error struct {
	Code    Code
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds a domain error with a client-safe message.
func New(code Code, message string) Error {
	return Error{Code: code, Message: message}
}

// Wrap attaches a code and client-safe message to an underlying cause. Both
// stay reachable through the error chain; transport renders only the coded
// message, the cause is for logs.
func Wrap(code Code, message string, cause error) error {
	return fmt.Errorf("%w: %w", Error{Code: code, Message: message}, cause)
}

// Is reports whether err carries the given code. Alias of HasCode kept for
// readability at call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var e Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

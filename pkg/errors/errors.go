package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the different kinds of failure a single object can hit
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeWrite       ErrorType = "write"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a scraper error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Network wraps a transport failure or an unreadable response body.
// code is the HTTP status when one was received, 0 otherwise.
func Network(err error, code int, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeNetwork, Message: fmt.Sprintf(format, args...), Code: code, Err: err}
}

// Parsing builds a failure for a missing or malformed payload field
func Parsing(format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeParsing, Message: fmt.Sprintf(format, args...)}
}

// Write wraps a filesystem error raised while saving an image or a ledger row
func Write(err error, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeWrite, Message: fmt.Sprintf(format, args...), Err: err}
}

// FromStatusCode maps a non-success HTTP status to an error type
func FromStatusCode(statusCode int) ErrorType {
	switch {
	case statusCode == 0:
		return ErrorTypeNetwork
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeNetwork
	}
}

// TypeOf returns the type of the first *Error in err's chain, or
// ErrorTypeUnknown when there is none
func TypeOf(err error) ErrorType {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsTransient reports whether a failure of this type may succeed on a later
// replay. Every failed id is logged for retry either way.
func IsTransient(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

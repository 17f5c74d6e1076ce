package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies a failure by how the pipeline reacts to it.
type ErrorType string

const (
	// ErrorTypeTransport is a non-200 response or a network failure. Callers
	// treat it as the end of whatever sequence they were paging through.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeRateLimit is a 429; handled exactly like a transport failure.
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParse is a malformed body or a missing profile stats anchor.
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeItemMalformed marks a search item missing required keys.
	ErrorTypeItemMalformed ErrorType = "item_malformed"
	// ErrorTypeRejected is the ingestion endpoint answering 422.
	ErrorTypeRejected ErrorType = "rejected"
	// ErrorTypeSupervisorFatal wraps anything escaping a whole crawl run.
	ErrorTypeSupervisorFatal ErrorType = "supervisor_fatal"
)

// Error carries a type, an optional HTTP status and the underlying cause
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error without a cause
func New(t ErrorType, code int, message string) *Error {
	return &Error{Type: t, Code: code, Message: message}
}

// Wrap creates an Error around err. A nil err yields nil.
func Wrap(t ErrorType, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf returns the type of the first *Error in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsType reports whether err's chain contains an *Error of type t
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// FromStatus maps an unexpected HTTP status to its error type
func FromStatus(statusCode int) ErrorType {
	switch statusCode {
	case 429:
		return ErrorTypeRateLimit
	case 422:
		return ErrorTypeRejected
	default:
		return ErrorTypeTransport
	}
}

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeConnection  ErrorType = "connection"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeContentType ErrorType = "content_type"
	ErrorTypeStorage     ErrorType = "storage"
	ErrorTypeCanceled    ErrorType = "canceled"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a typed fetch or storage error
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

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error wrapping cause
func New(t ErrorType, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    t,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// NewStatus creates a typed error for a definitive HTTP response
func NewStatus(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{
		Type:    t,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTimeout, ErrorTypeConnection:
		return true
	case ErrorTypeNotFound, ErrorTypeContentType, ErrorTypeStorage, ErrorTypeCanceled:
		return false
	default:
		return false
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given error type
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// Classify maps a raw transport error onto the fetch error taxonomy.
// The caller's own cancellation wins over every other kind.
func Classify(ctx context.Context, err error) ErrorType {
	if err == nil {
		return ""
	}
	if ctx != nil && ctx.Err() != nil {
		return ErrorTypeCanceled
	}
	if stderrors.Is(err, context.Canceled) {
		return ErrorTypeCanceled
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}

	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return ErrorTypeConnection
	}
	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return ErrorTypeConnection
	}
	if stderrors.Is(err, syscall.ECONNREFUSED) || stderrors.Is(err, syscall.ECONNRESET) {
		return ErrorTypeConnection
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) || stderrors.Is(err, io.EOF) {
		return ErrorTypeConnection
	}

	// Anything else surfaced by http.Client.Do is a transport failure
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return ErrorTypeConnection
	}

	return ErrorTypeUnknown
}

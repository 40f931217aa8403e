package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected bool
	}{
		{ErrorTypeTimeout, true},
		{ErrorTypeConnection, true},
		{ErrorTypeNotFound, false},
		{ErrorTypeContentType, false},
		{ErrorTypeStorage, false},
		{ErrorTypeCanceled, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.errType))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{"nil", nil, ""},
		{"deadline exceeded", context.DeadlineExceeded, ErrorTypeTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}, ErrorTypeTimeout},
		{"connection refused", &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}}, ErrorTypeConnection},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "x"}, ErrorTypeConnection},
		{"unexpected eof", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), ErrorTypeConnection},
		{"plain url error", &url.Error{Op: "Get", URL: "http://x", Err: stderrors.New("stopped after 10 redirects")}, ErrorTypeConnection},
		{"canceled", context.Canceled, ErrorTypeCanceled},
		{"other", stderrors.New("boom"), ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(context.Background(), tt.err))
		})
	}
}

func TestClassifyCanceledContextWins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, ErrorTypeCanceled, Classify(ctx, context.DeadlineExceeded))
}

func TestErrorWrapping(t *testing.T) {
	cause := stderrors.New("disk full")
	err := fmt.Errorf("save 7: %w", New(ErrorTypeStorage, cause, "write artifact"))

	assert.True(t, Is(err, ErrorTypeStorage))
	assert.False(t, Is(err, ErrorTypeTimeout))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeUnknown, TypeOf(cause))
	assert.Contains(t, err.Error(), "storage error: write artifact")

	status := NewStatus(ErrorTypeNotFound, 404, "unexpected status")
	assert.Equal(t, "not_found error (code 404): unexpected status", status.Error())
}

package bridge

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

// Error types for bridge communication

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeTransport indicates a network-level error (connection refused, timeout, etc.)
	ErrTypeTransport ErrorType = iota
	// ErrTypeHTTP indicates an HTTP-level error (non-200 status code)
	ErrTypeHTTP
	// ErrTypeDecode indicates a malformed XML or JSON body
	ErrTypeDecode
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeTimeout:
		return "Timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents a failure while talking to a bridge, below the level of
// the device's own response protocol. Device-reported failures are carried
// by *APIFailure instead.
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTransportError creates a network-level error, classifying timeouts
func NewTransportError(message string, err error) *Error {
	typ := ErrTypeTransport
	if isTimeout(err) {
		typ = ErrTypeTimeout
	}
	return &Error{
		Type:    typ,
		Message: message,
		Err:     err,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *Error {
	return &Error{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewDecodeError creates an error for a malformed response body
func NewDecodeError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeDecode,
		Message: message,
		Err:     err,
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsTransportError checks if an error is a network error (including timeouts)
func IsTransportError(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Type == ErrTypeTransport || be.Type == ErrTypeTimeout
	}
	// Unwrapped url.Error from a raw http call counts as transport too.
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// IsDecodeError checks if an error is a malformed-body error
func IsDecodeError(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Type == ErrTypeDecode
}

// IsAPIFailure checks if an error carries device-reported error entries
func IsAPIFailure(err error) bool {
	var f *APIFailure
	return errors.As(err, &f)
}

// APIError is a single structured error entry reported by the bridge itself.
// The bridge returns these inside the response section list of every control
// call.
type APIError struct {
	// Type is the device's numeric error kind (e.g. 1 = unauthorized user,
	// 101 = link button not pressed)
	Type int `json:"type"`
	// Address is the resource path the error applies to
	Address string `json:"address"`
	// Description is the device's human-readable explanation
	Description string `json:"description"`
}

// Error implements the error interface
func (e APIError) Error() string {
	return fmt.Sprintf("bridge error %d at %s: %s", e.Type, e.Address, e.Description)
}

// APIFailure aggregates the error entries of one control call, in response
// order. A failure with zero entries is still a failure: the bridge answered
// with a well-formed response that carried no usable success section.
type APIFailure struct {
	Errors []APIError
}

// Error implements the error interface
func (f *APIFailure) Error() string {
	if len(f.Errors) == 0 {
		return "bridge reported no success and no errors"
	}
	descs := make([]string, len(f.Errors))
	for i, e := range f.Errors {
		descs[i] = e.Error()
	}
	return strings.Join(descs, "; ")
}

// Package cverrors defines the error taxonomy shared by the credential
// store, the request layer, the trust service, and the account lifecycle
// logic. Callers are expected to branch on these types with errors.Is and
// errors.As rather than string matching.
package cverrors

import (
	"errors"
	"fmt"
)

// ErrNotLoggedIn is returned by credential stores when no record matches the
// requested server identity.
var ErrNotLoggedIn = errors.New("not logged in")

// PasswordComplexityMessage mirrors the server's password policy. It is the
// user-facing text attached to ErrInvalidPassword.
const PasswordComplexityMessage = "the password must contain at least 12 characters: " +
	"2 uppercase, 2 lowercase, 1 digit, 1 special character"

// Lifecycle sentinels. The account layer reclassifies raw HTTP failures into
// these; no other layer is allowed to.
var (
	ErrAuthenticationFailed  = errors.New("authentication failed, please log in again")
	ErrInvalidPassword       = errors.New(PasswordComplexityMessage)
	ErrOperationNotCompleted = errors.New("the operation was not completed")
)

// TransportError reports a failure below the HTTP layer: DNS resolution,
// TCP connection, or TLS handshake against an API endpoint.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx response. Body holds the raw response body
// when the server sent one; it may contain diagnostic detail and must only
// be surfaced at debug verbosity.
type HTTPError struct {
	StatusCode int
	Reason     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("server returned HTTP %d %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
}

// IsClientError reports whether the response was a 4xx.
func (e *HTTPError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError reports whether the response was a 5xx.
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500
}

// ConnectionError reports a failed TLS handshake during certificate
// retrieval. Distinct from TransportError so the first-time-setup flow can
// tell "server unreachable" apart from "API call failed".
type ConnectionError struct {
	Host string
	Port int
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("unable to establish a TLS connection to %s:%d: %v", e.Host, e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid or incomplete connection profile, with a
// suggestion for fixing it.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message
	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}
	return msg
}

// HTTPStatus extracts the status code from err when it wraps an HTTPError.
// Returns 0 when err carries no HTTP status.
func HTTPStatus(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

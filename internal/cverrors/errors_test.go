package cverrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestHTTPErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		client bool
		server bool
	}{
		{status: 400, client: true},
		{status: 401, client: true},
		{status: 422, client: true},
		{status: 499, client: true},
		{status: 500, server: true},
		{status: 503, server: true},
		{status: 302},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := &HTTPError{StatusCode: tt.status}
			if err.IsClientError() != tt.client {
				t.Errorf("IsClientError() = %v, want %v", err.IsClientError(), tt.client)
			}
			if err.IsServerError() != tt.server {
				t.Errorf("IsServerError() = %v, want %v", err.IsServerError(), tt.server)
			}
		})
	}
}

func TestHTTPErrorMessageOmitsBody(t *testing.T) {
	err := &HTTPError{
		StatusCode: 422,
		Reason:     "Unprocessable Entity",
		Body:       `{"error": "api_key=hunter2 rejected"}`,
	}
	if strings.Contains(err.Error(), "hunter2") {
		t.Errorf("Error() leaked response body: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("Error() missing status code: %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	wrapped := fmt.Errorf("changing password: %w", &HTTPError{StatusCode: 401})
	if got := HTTPStatus(wrapped); got != 401 {
		t.Errorf("HTTPStatus() = %d, want 401", got)
	}
	if got := HTTPStatus(errors.New("plain")); got != 0 {
		t.Errorf("HTTPStatus() on non-HTTP error = %d, want 0", got)
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &TransportError{URL: "https://vault.example.com", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("TransportError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "vault.example.com") {
		t.Errorf("Error() missing target URL: %q", err.Error())
	}
}

func TestConnectionErrorUnwrap(t *testing.T) {
	cause := errors.New("handshake failure")
	err := &ConnectionError{Host: "vault.example.com", Port: 443, Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ConnectionError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "vault.example.com:443") {
		t.Errorf("Error() missing host:port: %q", err.Error())
	}
}

func TestConfigErrorSuggestion(t *testing.T) {
	err := ConfigError{
		Field:      "appliance_url",
		Message:    "missing server URL",
		Suggestion: "Run 'covault init' to configure the server connection",
	}
	if !strings.Contains(err.Error(), "appliance_url") {
		t.Errorf("Error() missing field name: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "covault init") {
		t.Errorf("Error() missing suggestion: %q", err.Error())
	}
}

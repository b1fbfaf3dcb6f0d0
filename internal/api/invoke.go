package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/covaulthq/covault/internal/cverrors"
	"github.com/covaulthq/covault/internal/logging"
)

// BasicAuth carries a basic-auth pair for the small set of endpoints that
// authenticate with (login, password-or-key) instead of a token.
type BasicAuth struct {
	Login    string
	Password string
}

// Options configure one invocation.
type Options struct {
	// Params fill the endpoint template. The parameter named "url" is
	// substituted as-is; every other value is percent-escaped.
	Params map[string]string

	// Query is appended to the request URL.
	Query url.Values

	// Body is the request body, if any.
	Body io.Reader

	// Token, when non-empty, is attached as
	// `Authorization: Token token="<base64>"`.
	Token string

	// BasicAuth, when set, attaches a basic-auth header.
	BasicAuth *BasicAuth

	// TLSVerify disables certificate validation when false. Explicit
	// insecure opt-in; the call still completes.
	TLSVerify bool

	// CABundle, when set, replaces the system trust roots with the
	// certificates in the given PEM file.
	CABundle string

	// SkipErrorCheck returns non-2xx responses to the caller instead of
	// classifying them into errors.
	SkipErrorCheck bool
}

// Invoker turns endpoint invocations into HTTP requests. It imposes no
// timeout of its own; cancellation comes from the caller's context.
type Invoker struct {
	logger *logging.Logger
}

// NewInvoker creates an invoker.
func NewInvoker(logger *logging.Logger) *Invoker {
	return &Invoker{logger: logger}
}

// Invoke builds the request for the endpoint, issues it, and classifies the
// outcome. On success the caller owns the response body. Non-2xx responses
// become *cverrors.HTTPError (unless SkipErrorCheck), failures below HTTP
// become *cverrors.TransportError.
func (inv *Invoker) Invoke(ctx context.Context, endpoint Endpoint, opts Options) (*http.Response, error) {
	target, err := expandTemplate(endpoint.Template, opts.Params)
	if err != nil {
		return nil, err
	}
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, endpoint.Method, target, opts.Body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", endpoint.Name, err)
	}

	if opts.Token != "" {
		encoded := base64.StdEncoding.EncodeToString([]byte(opts.Token))
		req.Header.Set("Authorization", fmt.Sprintf("Token token=%q", encoded))
	}
	if opts.BasicAuth != nil {
		req.SetBasicAuth(opts.BasicAuth.Login, opts.BasicAuth.Password)
	}

	client, err := newHTTPClient(opts.TLSVerify, opts.CABundle)
	if err != nil {
		return nil, err
	}

	inv.logger.Debug("%s %s", endpoint.Method, target)
	resp, err := client.Do(req)
	if err != nil {
		return nil, &cverrors.TransportError{URL: target, Err: err}
	}

	if opts.SkipErrorCheck || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return resp, nil
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	httpErr := &cverrors.HTTPError{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Body:       string(body),
	}
	if httpErr.Body != "" {
		// Bodies can carry diagnostic detail but also echoes of request
		// content, so they are debug-only.
		inv.logger.Debug("HTTP %d %s: %s", httpErr.StatusCode, httpErr.Reason, httpErr.Body)
	}
	return nil, httpErr
}

// expandTemplate substitutes {name} placeholders. The "url" parameter names
// a complete URL and passes through verbatim; everything else is escaped so
// separators inside identifiers cannot introduce path segments.
func expandTemplate(template string, params map[string]string) (string, error) {
	result := template
	for key, value := range params {
		placeholder := "{" + key + "}"
		if !strings.Contains(result, placeholder) {
			// Callers pass a shared base parameter set; templates use the
			// subset they need.
			continue
		}
		if key != "url" {
			value = escapeParam(value)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}
	if i := strings.IndexByte(result, '{'); i >= 0 {
		return "", fmt.Errorf("endpoint template parameter %s left unfilled", result[i:])
	}
	return result, nil
}

// escapeParam percent-escapes every reserved character, including '/'.
// QueryEscape is the strictest stdlib escaper; its space-to-plus quirk is
// corrected since these values land in the path.
func escapeParam(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

func newHTTPClient(tlsVerify bool, caBundle string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsConfig := &tls.Config{}

	if !tlsVerify {
		tlsConfig.InsecureSkipVerify = true
	} else if caBundle != "" {
		pem, err := os.ReadFile(caBundle)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle %s: %w", caBundle, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("CA bundle %s contains no usable certificates", caBundle)
		}
		tlsConfig.RootCAs = pool
	}

	transport.TLSClientConfig = tlsConfig
	return &http.Client{Transport: transport}, nil
}

func reasonPhrase(resp *http.Response) string {
	// resp.Status is "404 Not Found"; keep just the phrase.
	if _, phrase, found := strings.Cut(resp.Status, " "); found {
		return phrase
	}
	return http.StatusText(resp.StatusCode)
}

// Package api is the authenticated request layer: it turns logical server
// operations into signed HTTP requests and classifies their failures. It
// holds no credential state; tokens and basic-auth pairs are arguments.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/covaulthq/covault/internal/logging"
)

// Client issues typed calls against one configured server.
type Client struct {
	applianceURL string
	account      string
	tlsVerify    bool
	caBundle     string

	invoker *Invoker
	logger  *logging.Logger
}

// ClientConfig carries everything the client needs; assembled by the caller
// from the connection profile and flags, validated there.
type ClientConfig struct {
	ApplianceURL string
	Account      string
	TLSVerify    bool
	CABundle     string
}

// NewClient creates a client for the given server.
func NewClient(cfg ClientConfig, logger *logging.Logger) *Client {
	return &Client{
		applianceURL: strings.TrimSuffix(cfg.ApplianceURL, "/"),
		account:      cfg.Account,
		tlsVerify:    cfg.TLSVerify,
		caBundle:     cfg.CABundle,
		invoker:      NewInvoker(logger),
		logger:       logger,
	}
}

// ApplianceURL returns the configured server base URL.
func (c *Client) ApplianceURL() string {
	return c.applianceURL
}

func (c *Client) baseParams() map[string]string {
	return map[string]string{
		"url":     c.applianceURL,
		"account": c.account,
	}
}

func (c *Client) options() Options {
	return Options{
		Params:    c.baseParams(),
		TLSVerify: c.tlsVerify,
		CABundle:  c.caBundle,
	}
}

// Login exchanges (login, password-or-key) for the user's API key.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	opts := c.options()
	opts.BasicAuth = &BasicAuth{Login: login, Password: password}

	body, err := c.invokeText(ctx, EndpointLogin, opts)
	if err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}
	return body, nil
}

// Authenticate exchanges (login, api key) for a short-lived access token.
func (c *Client) Authenticate(ctx context.Context, login, apiKey string) (string, error) {
	opts := c.options()
	opts.Params["login"] = login
	opts.Body = strings.NewReader(apiKey)

	token, err := c.invokeText(ctx, EndpointAuthenticate, opts)
	if err != nil {
		return "", fmt.Errorf("authenticating: %w", err)
	}
	return token, nil
}

// RotateOwnAPIKey rotates the caller's own API key, authenticating with the
// current key, and returns the replacement.
func (c *Client) RotateOwnAPIKey(ctx context.Context, login, currentKey string) (string, error) {
	opts := c.options()
	opts.BasicAuth = &BasicAuth{Login: login, Password: currentKey}

	newKey, err := c.invokeText(ctx, EndpointRotateAPIKey, opts)
	if err != nil {
		return "", fmt.Errorf("rotating API key: %w", err)
	}
	return newKey, nil
}

// RotateUserAPIKey rotates another user's API key using the caller's access
// token. The returned key belongs to that user and is never persisted here.
func (c *Client) RotateUserAPIKey(ctx context.Context, token, userID string) (string, error) {
	opts := c.options()
	opts.Token = token
	opts.Query = url.Values{"role": {fmt.Sprintf("%s:user:%s", c.account, userID)}}

	newKey, err := c.invokeText(ctx, EndpointRotateAPIKey, opts)
	if err != nil {
		return "", fmt.Errorf("rotating API key for %s: %w", userID, err)
	}
	return newKey, nil
}

// ChangePassword sets a new password for the caller, authenticating with the
// current password or API key. Raw HTTP errors are returned undecorated so
// the lifecycle layer can reclassify the 401 and 422 cases.
func (c *Client) ChangePassword(ctx context.Context, login, currentSecret, newPassword string) error {
	opts := c.options()
	opts.BasicAuth = &BasicAuth{Login: login, Password: currentSecret}
	opts.Body = strings.NewReader(newPassword)

	resp, err := c.invoker.Invoke(ctx, EndpointChangePassword, opts)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Identity is the server's view of the authenticated caller.
type Identity struct {
	Account       string `json:"account"`
	Username      string `json:"username"`
	ClientIP      string `json:"client_ip"`
	UserAgent     string `json:"user_agent"`
	TokenIssuedAt string `json:"token_issued_at"`
}

// WhoAmI returns the identity bound to the access token.
func (c *Client) WhoAmI(ctx context.Context, token string) (*Identity, error) {
	opts := c.options()
	opts.Token = token

	resp, err := c.invoker.Invoke(ctx, EndpointWhoAmI, opts)
	if err != nil {
		return nil, fmt.Errorf("fetching identity: %w", err)
	}
	defer resp.Body.Close()

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decoding identity response: %w", err)
	}
	return &identity, nil
}

// GetSecret retrieves the current value of a secret variable.
func (c *Client) GetSecret(ctx context.Context, token, variableID string) (string, error) {
	opts := c.options()
	opts.Token = token
	opts.Params["identifier"] = variableID

	value, err := c.invokeText(ctx, EndpointGetSecret, opts)
	if err != nil {
		return "", fmt.Errorf("retrieving secret %s: %w", variableID, err)
	}
	return value, nil
}

// SetSecret stores a new value for a secret variable.
func (c *Client) SetSecret(ctx context.Context, token, variableID, value string) error {
	opts := c.options()
	opts.Token = token
	opts.Params["identifier"] = variableID
	opts.Body = strings.NewReader(value)

	resp, err := c.invoker.Invoke(ctx, EndpointSetSecret, opts)
	if err != nil {
		return fmt.Errorf("setting secret %s: %w", variableID, err)
	}
	resp.Body.Close()
	return nil
}

// PolicyMode selects how a policy document is applied to a branch.
type PolicyMode int

const (
	// PolicyModeAppend adds to the branch, never deleting.
	PolicyModeAppend PolicyMode = iota
	// PolicyModeReplace replaces the branch wholesale.
	PolicyModeReplace
	// PolicyModeUpdate applies the document, allowing explicit deletions.
	PolicyModeUpdate
)

func (m PolicyMode) endpoint() Endpoint {
	switch m {
	case PolicyModeReplace:
		return EndpointReplacePolicy
	case PolicyModeUpdate:
		return EndpointUpdatePolicy
	default:
		return EndpointLoadPolicy
	}
}

// LoadPolicy streams a policy document to the given branch and returns the
// server's raw JSON response for the caller to render.
func (c *Client) LoadPolicy(ctx context.Context, token, branch string, document io.Reader, mode PolicyMode) (string, error) {
	opts := c.options()
	opts.Token = token
	opts.Params["identifier"] = branch
	opts.Body = document

	result, err := c.invokeText(ctx, mode.endpoint(), opts)
	if err != nil {
		return "", fmt.Errorf("loading policy into %s: %w", branch, err)
	}
	return result, nil
}

// invokeText issues the call and returns the response body as a string.
func (c *Client) invokeText(ctx context.Context, endpoint Endpoint, opts Options) (string, error) {
	resp, err := c.invoker.Invoke(ctx, endpoint, opts)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s response: %w", endpoint.Name, err)
	}
	return string(body), nil
}

// Package account orchestrates login, API key rotation and password changes
// across the credential store and the request layer. It is the only layer
// allowed to reclassify raw HTTP failures into domain errors.
package account

import (
	"context"
	"fmt"
	"net/http"

	"github.com/covaulthq/covault/internal/api"
	"github.com/covaulthq/covault/internal/credentials"
	"github.com/covaulthq/covault/internal/cverrors"
	"github.com/covaulthq/covault/internal/logging"
	"github.com/covaulthq/covault/internal/secure"
)

// credentialHostPath is appended to the appliance URL to form the machine
// identity under which credentials are stored. Loading matches on the bare
// appliance URL via the store's substring rule, so stores written by earlier
// tooling keep working.
const credentialHostPath = "/authn"

// Client is the slice of the API surface the lifecycle needs. *api.Client
// satisfies it; tests substitute fakes.
type Client interface {
	ApplianceURL() string
	Login(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, apiKey string) (string, error)
	RotateOwnAPIKey(ctx context.Context, login, currentKey string) (string, error)
	RotateUserAPIKey(ctx context.Context, token, userID string) (string, error)
	ChangePassword(ctx context.Context, login, currentSecret, newPassword string) error
	WhoAmI(ctx context.Context, token string) (*api.Identity, error)
}

// Lifecycle drives one account session: at most one flow per CLI
// invocation, no retries, no background work.
type Lifecycle struct {
	client Client
	store  credentials.Store
	logger *logging.Logger

	// session caches the access token for the duration of one invocation.
	// It lives in a memguard enclave and never touches disk.
	session *secure.Buffer
}

// NewLifecycle creates the orchestration layer.
func NewLifecycle(client Client, store credentials.Store, logger *logging.Logger) *Lifecycle {
	return &Lifecycle{
		client: client,
		store:  store,
		logger: logger,
	}
}

// Close wipes the in-memory session token. Safe to call unconditionally.
func (l *Lifecycle) Close() {
	if l.session != nil {
		l.session.Wipe()
		l.session = nil
	}
}

// MachineIdentity returns the machine key new credential records are stored
// under.
func (l *Lifecycle) MachineIdentity() string {
	return l.client.ApplianceURL() + credentialHostPath
}

// Login exchanges (login, password) for the user's API key. The key is
// returned, not persisted; pair with StoreCredentials.
func (l *Lifecycle) Login(ctx context.Context, login, password string) (string, error) {
	apiKey, err := l.client.Login(ctx, login, password)
	if err != nil {
		if cverrors.HTTPStatus(err) == http.StatusUnauthorized {
			return "", cverrors.ErrAuthenticationFailed
		}
		return "", err
	}
	l.logger.Debug("obtained API key for %s: %s", login, logging.Secret(apiKey))
	return apiKey, nil
}

// StoreCredentials persists a freshly obtained API key under this server's
// machine identity.
func (l *Lifecycle) StoreCredentials(login, apiKey string) error {
	return l.store.Save(&credentials.Record{
		Machine:  l.MachineIdentity(),
		Login:    login,
		Password: apiKey,
	})
}

// Logout removes this server's record from the credential store.
func (l *Lifecycle) Logout(ctx context.Context) error {
	l.Close()
	return l.store.Remove(l.client.ApplianceURL())
}

// RotateAPIKey rotates an API key. An empty target rotates the caller's own
// key and persists the replacement before reporting success, so a crash
// after the server accepted the rotation still leaves the new key on disk.
// A non-empty target rotates that user's key via the admin endpoint; the
// returned key belongs to them and is never written to the local store.
func (l *Lifecycle) RotateAPIKey(ctx context.Context, targetUserID string) (string, error) {
	if targetUserID == "" {
		return l.rotateOwnKey(ctx)
	}

	token, err := l.token(ctx)
	if err != nil {
		return "", err
	}
	newKey, err := l.client.RotateUserAPIKey(ctx, token, targetUserID)
	if err != nil {
		return "", err
	}
	return newKey, nil
}

func (l *Lifecycle) rotateOwnKey(ctx context.Context) (string, error) {
	record, err := l.store.Load(l.client.ApplianceURL())
	if err != nil {
		return "", err
	}

	newKey, err := l.client.RotateOwnAPIKey(ctx, record.Login, record.Password)
	if err != nil {
		return "", err
	}

	// The server has already invalidated the old key; persist before
	// reporting success.
	record.Password = newKey
	if err := l.store.Save(record); err != nil {
		return "", fmt.Errorf("the key was rotated but could not be saved locally, "+
			"log in again to restore access: %w", err)
	}
	return newKey, nil
}

// ChangePassword sets a new password for the logged-in user and returns
// their login id. HTTP 401 becomes ErrAuthenticationFailed, HTTP 422
// becomes ErrInvalidPassword, any other failed status becomes
// ErrOperationNotCompleted. Transport failures pass through unchanged.
func (l *Lifecycle) ChangePassword(ctx context.Context, newPassword string) (string, error) {
	record, err := l.store.Load(l.client.ApplianceURL())
	if err != nil {
		return "", err
	}

	if err := l.client.ChangePassword(ctx, record.Login, record.Password, newPassword); err != nil {
		switch cverrors.HTTPStatus(err) {
		case http.StatusUnauthorized:
			return "", cverrors.ErrAuthenticationFailed
		case http.StatusUnprocessableEntity:
			return "", cverrors.ErrInvalidPassword
		case 0:
			// Not an HTTP-status failure; the transport error already says
			// what went wrong.
			return "", err
		default:
			return "", cverrors.ErrOperationNotCompleted
		}
	}
	return record.Login, nil
}

// WhoAmI reports the server's view of the authenticated caller.
func (l *Lifecycle) WhoAmI(ctx context.Context) (*api.Identity, error) {
	token, err := l.token(ctx)
	if err != nil {
		return nil, err
	}
	return l.client.WhoAmI(ctx, token)
}

// Token returns the session access token, authenticating with stored
// credentials on first use. Exposed for callers that drive the request
// layer directly (secret retrieval, policy loading).
func (l *Lifecycle) Token(ctx context.Context) (string, error) {
	return l.token(ctx)
}

func (l *Lifecycle) token(ctx context.Context) (string, error) {
	if l.session != nil {
		return l.session.String()
	}

	record, err := l.store.Load(l.client.ApplianceURL())
	if err != nil {
		return "", err
	}

	token, err := l.client.Authenticate(ctx, record.Login, record.Password)
	if err != nil {
		if cverrors.HTTPStatus(err) == http.StatusUnauthorized {
			return "", cverrors.ErrAuthenticationFailed
		}
		return "", err
	}

	l.session = secure.NewBufferFromString(token)
	return l.session.String()
}

package credentials

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/covaulthq/covault/internal/cverrors"
	"github.com/covaulthq/covault/internal/logging"
)

// keyringService scopes this tool's entries in the OS keyring.
const keyringService = "covault"

// KeyringStore keeps credential records in the OS keyring (Secret Service
// on Linux, Keychain on macOS, Credential Manager on Windows). Unlike the
// file store there is no way to enumerate entries, so matching is exact on
// the machine identity.
type KeyringStore struct {
	service string
	logger  *logging.Logger
}

// NewKeyringStore creates a keyring-backed store.
func NewKeyringStore(logger *logging.Logger) *KeyringStore {
	return &KeyringStore{service: keyringService, logger: logger}
}

// keyringRecord is the JSON shape stored as the keyring secret value.
type keyringRecord struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Load retrieves the record stored under the exact server identity.
func (s *KeyringStore) Load(serverIdentity string) (*Record, error) {
	s.logger.Debug("retrieving credentials from OS keyring for %s", serverIdentity)

	value, err := keyring.Get(s.service, serverIdentity)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, cverrors.ErrNotLoggedIn
		}
		return nil, fmt.Errorf("querying OS keyring: %w", err)
	}

	var kr keyringRecord
	if err := json.Unmarshal([]byte(value), &kr); err != nil {
		return nil, fmt.Errorf("decoding keyring entry for %s: %w", serverIdentity, err)
	}

	return &Record{
		Machine:  serverIdentity,
		Login:    kr.Login,
		Password: kr.Password,
	}, nil
}

// Save stores the record under its machine identity, replacing any existing
// entry.
func (s *KeyringStore) Save(record *Record) error {
	value, err := json.Marshal(keyringRecord{
		Login:    record.Login,
		Password: record.Password,
	})
	if err != nil {
		return fmt.Errorf("encoding keyring entry: %w", err)
	}

	if err := keyring.Set(s.service, record.Machine, string(value)); err != nil {
		return fmt.Errorf("writing to OS keyring: %w", err)
	}
	return nil
}

// Remove deletes the record stored under the exact server identity.
func (s *KeyringStore) Remove(serverIdentity string) error {
	if err := keyring.Delete(s.service, serverIdentity); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return cverrors.ErrNotLoggedIn
		}
		return fmt.Errorf("deleting from OS keyring: %w", err)
	}
	return nil
}

var _ Store = (*KeyringStore)(nil)

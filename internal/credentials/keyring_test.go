package credentials

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/covaulthq/covault/internal/cverrors"
	"github.com/covaulthq/covault/internal/logging"
)

func newTestKeyringStore(t *testing.T) *KeyringStore {
	t.Helper()
	keyring.MockInit()
	return NewKeyringStore(logging.New(false, true))
}

func TestKeyringSaveLoadRoundTrip(t *testing.T) {
	store := newTestKeyringStore(t)

	record := &Record{
		Machine:  "https://vault.example.com",
		Login:    "alice",
		Password: "api-key-1",
	}
	if err := store.Save(record); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := store.Load("https://vault.example.com")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *loaded != *record {
		t.Errorf("Load() = %+v, want %+v", loaded, record)
	}
}

func TestKeyringLoadMissing(t *testing.T) {
	store := newTestKeyringStore(t)

	if _, err := store.Load("https://absent.example.com"); !errors.Is(err, cverrors.ErrNotLoggedIn) {
		t.Errorf("Load() = %v, want ErrNotLoggedIn", err)
	}
}

func TestKeyringUpdateInPlace(t *testing.T) {
	store := newTestKeyringStore(t)

	if err := store.Save(&Record{Machine: "https://vault.example.com", Login: "alice", Password: "k1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Save(&Record{Machine: "https://vault.example.com", Login: "alice", Password: "k2"}); err != nil {
		t.Fatalf("Save() update error: %v", err)
	}

	got, err := store.Load("https://vault.example.com")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Password != "k2" {
		t.Errorf("Load() password = %q, want k2", got.Password)
	}
}

func TestKeyringRemove(t *testing.T) {
	store := newTestKeyringStore(t)

	if err := store.Save(&Record{Machine: "https://vault.example.com", Login: "alice", Password: "k1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Remove("https://vault.example.com"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if _, err := store.Load("https://vault.example.com"); !errors.Is(err, cverrors.ErrNotLoggedIn) {
		t.Errorf("Load() after Remove = %v, want ErrNotLoggedIn", err)
	}
	if err := store.Remove("https://vault.example.com"); !errors.Is(err, cverrors.ErrNotLoggedIn) {
		t.Errorf("Remove() of absent entry = %v, want ErrNotLoggedIn", err)
	}
}

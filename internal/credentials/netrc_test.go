package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/covaulthq/covault/internal/cverrors"
	"github.com/covaulthq/covault/internal/logging"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".netrc")
	return NewFileStore(path, logging.New(false, true)), path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestFileStore(t)

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

func TestSaveFileFormat(t *testing.T) {
	store, path := newTestFileStore(t)

	if err := store.Save(&Record{Machine: "https://one.example.com", Login: "alice", Password: "k1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Save(&Record{Machine: "https://two.example.com", Login: "bob", Password: "k2"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading store: %v", err)
	}
	content := string(data)

	want := "machine https://one.example.com\n" +
		"login alice\n" +
		"password k1\n" +
		"\n" +
		"machine https://two.example.com\n" +
		"login bob\n" +
		"password k2\n"
	if content != want {
		t.Errorf("store content:\n%q\nwant:\n%q", content, want)
	}
	if strings.Contains(content, "\t") {
		t.Error("store content must not contain tab characters")
	}
}

func TestSavePreservesOtherMachines(t *testing.T) {
	store, path := newTestFileStore(t)

	for _, r := range []*Record{
		{Machine: "https://one.example.com", Login: "alice", Password: "k1"},
		{Machine: "https://two.example.com", Login: "bob", Password: "k2"},
		{Machine: "https://three.example.com", Login: "carol", Password: "k3"},
	} {
		if err := store.Save(r); err != nil {
			t.Fatalf("Save(%s) error: %v", r.Machine, err)
		}
	}

	// Update the middle record; the others must survive untouched.
	if err := store.Save(&Record{Machine: "https://two.example.com", Login: "bob", Password: "k2-rotated"}); err != nil {
		t.Fatalf("Save() update error: %v", err)
	}

	for _, want := range []Record{
		{Machine: "https://one.example.com", Login: "alice", Password: "k1"},
		{Machine: "https://two.example.com", Login: "bob", Password: "k2-rotated"},
		{Machine: "https://three.example.com", Login: "carol", Password: "k3"},
	} {
		got, err := store.Load(want.Machine)
		if err != nil {
			t.Fatalf("Load(%s) error: %v", want.Machine, err)
		}
		if *got != want {
			t.Errorf("Load(%s) = %+v, want %+v", want.Machine, got, want)
		}
	}

	data, _ := os.ReadFile(path)
	if got := strings.Count(string(data), "machine "); got != 3 {
		t.Errorf("store holds %d machine blocks, want 3", got)
	}
}

func TestSavePreservesForeignEntries(t *testing.T) {
	store, path := newTestFileStore(t)

	// A record written by some other tool, with an extra account token.
	foreign := "machine ftp.example.org\nlogin legacy\naccount ops\npassword oldpw\n"
	if err := os.WriteFile(path, []byte(foreign), 0o600); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	if err := store.Save(&Record{Machine: "https://vault.example.com", Login: "alice", Password: "k1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	for _, line := range []string{"machine ftp.example.org", "login legacy", "account ops", "password oldpw"} {
		if !strings.Contains(content, line) {
			t.Errorf("foreign entry lost line %q:\n%s", line, content)
		}
	}
}

func TestSaveReappliesPermissions(t *testing.T) {
	store, path := newTestFileStore(t)

	if err := store.Save(&Record{Machine: "https://vault.example.com", Login: "alice", Password: "k1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	assertOwnerOnly := func() {
		t.Helper()
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm&0o077 != 0 {
			t.Errorf("store permissions %o grant group/other access", perm)
		}
	}
	assertOwnerOnly()

	// Simulate external permission drift; the next save must correct it.
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if err := store.Save(&Record{Machine: "https://vault.example.com", Login: "alice", Password: "k2"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	assertOwnerOnly()
}

func TestLoadNoMatch(t *testing.T) {
	store, _ := newTestFileStore(t)

	// Missing file reads as "never logged in".
	if _, err := store.Load("https://vault.example.com"); !errors.Is(err, cverrors.ErrNotLoggedIn) {
		t.Errorf("Load() on missing file = %v, want ErrNotLoggedIn", err)
	}

	if err := store.Save(&Record{Machine: "https://other.example.com", Login: "bob", Password: "k"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := store.Load("https://vault.example.com"); !errors.Is(err, cverrors.ErrNotLoggedIn) {
		t.Errorf("Load() with no matching machine = %v, want ErrNotLoggedIn", err)
	}
}

func TestLoadSubstringMatch(t *testing.T) {
	store, _ := newTestFileStore(t)

	if err := store.Save(&Record{Machine: "https://vault.example.com/authn", Login: "alice", Password: "k1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// The stored machine token contains the configured URL.
	got, err := store.Load("https://vault.example.com")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Login != "alice" {
		t.Errorf("Load() login = %q, want alice", got.Login)
	}
}

func TestLoadPrefersExactMatch(t *testing.T) {
	store, _ := newTestFileStore(t)

	// A longer machine token appears first in the file; the exact match
	// further down must still win.
	for _, r := range []*Record{
		{Machine: "https://vault.example.com/authn", Login: "ambient", Password: "k1"},
		{Machine: "https://vault.example.com", Login: "exact", Password: "k2"},
	} {
		if err := store.Save(r); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	got, err := store.Load("https://vault.example.com")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Login != "exact" {
		t.Errorf("Load() login = %q, want exact", got.Login)
	}
}

func TestLoadFirstMatchInFileOrder(t *testing.T) {
	store, _ := newTestFileStore(t)

	for _, r := range []*Record{
		{Machine: "https://vault.example.com/a", Login: "first", Password: "k1"},
		{Machine: "https://vault.example.com/b", Login: "second", Password: "k2"},
	} {
		if err := store.Save(r); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	got, err := store.Load("https://vault.example.com")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Login != "first" {
		t.Errorf("Load() login = %q, want first (file order)", got.Login)
	}
}

func TestRemove(t *testing.T) {
	store, path := newTestFileStore(t)

	for _, r := range []*Record{
		{Machine: "https://one.example.com", Login: "alice", Password: "k1"},
		{Machine: "https://two.example.com", Login: "bob", Password: "k2"},
	} {
		if err := store.Save(r); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	if err := store.Remove("https://one.example.com"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	if _, err := store.Load("https://one.example.com"); !errors.Is(err, cverrors.ErrNotLoggedIn) {
		t.Errorf("Load() after Remove = %v, want ErrNotLoggedIn", err)
	}
	if _, err := store.Load("https://two.example.com"); err != nil {
		t.Errorf("unrelated record lost after Remove: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "one.example.com") {
		t.Errorf("removed machine still present:\n%s", data)
	}

	if err := store.Remove("https://one.example.com"); !errors.Is(err, cverrors.ErrNotLoggedIn) {
		t.Errorf("Remove() of absent record = %v, want ErrNotLoggedIn", err)
	}
}

func TestSaveStripsTabs(t *testing.T) {
	store, path := newTestFileStore(t)

	if err := store.Save(&Record{Machine: "https://vault.example.com", Login: "ali\tce", Password: "k\t1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "\t") {
		t.Errorf("tabs written to store:\n%q", data)
	}

	got, err := store.Load("https://vault.example.com")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Login != "alice" || got.Password != "k1" {
		t.Errorf("Load() = %+v, want tab-stripped values", got)
	}
}

func TestParseNetrcSingleLineEntries(t *testing.T) {
	entries := parseNetrc("machine a.example.com login u password p machine b.example.com login v password q")
	if len(entries) != 2 {
		t.Fatalf("parsed %d entries, want 2", len(entries))
	}
	if entries[0].machine != "a.example.com" || entries[0].get("password") != "p" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].machine != "b.example.com" || entries[1].get("login") != "v" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/covaulthq/covault/internal/cverrors"
	"github.com/covaulthq/covault/internal/logging"
)

// ownerOnly is the permission mask re-applied after every write, matching
// the historical stores this tool must interoperate with.
const ownerOnly = 0o700

// FileStore keeps credential records in a netrc-format file: blank-line
// separated blocks of `machine`, `login` and `password` lines. The file may
// contain records written by other tools; those are carried through rewrites
// with only blank-line normalization and tab stripping applied.
type FileStore struct {
	path   string
	logger *logging.Logger
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string, logger *logging.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// entry is one machine block, with field order preserved so records owned by
// other tools round-trip.
type entry struct {
	machine string
	fields  []field
}

type field struct {
	key   string
	value string
}

func (e *entry) get(key string) string {
	for _, f := range e.fields {
		if f.key == key {
			return f.value
		}
	}
	return ""
}

func (e *entry) set(key, value string) {
	for i, f := range e.fields {
		if f.key == key {
			e.fields[i].value = value
			return
		}
	}
	e.fields = append(e.fields, field{key: key, value: value})
}

// Load returns the record for the given server identity.
//
// Matching is exact first, then falls back to the inherited substring rule:
// a stored machine token that contains the identity matches. The first match
// in file order wins, so a store where one server's URL is a prefix of
// another's resolves deterministically (if sometimes surprisingly; the
// exact-match pass exists to keep well-formed stores out of that trap).
func (s *FileStore) Load(serverIdentity string) (*Record, error) {
	entries, err := s.read()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("retrieving credentials from file: %s", s.path)

	idx := matchIndex(entries, serverIdentity)
	if idx < 0 {
		return nil, cverrors.ErrNotLoggedIn
	}

	e := entries[idx]
	return &Record{
		Machine:  e.machine,
		Login:    e.get("login"),
		Password: e.get("password"),
	}, nil
}

// Save creates or updates the record for record.Machine. Every other
// machine's entry is rewritten unchanged. The whole file is replaced via a
// temp file and rename so a concurrent reader never observes a torn store,
// and the owner-only permission mask is re-applied even when the file
// already existed, to undo external permission drift.
func (s *FileStore) Save(record *Record) error {
	entries, err := s.read()
	if err != nil && !os.IsNotExist(err) && err != cverrors.ErrNotLoggedIn {
		return err
	}

	updated := false
	for i := range entries {
		if entries[i].machine == record.Machine {
			entries[i].set("login", record.Login)
			entries[i].set("password", record.Password)
			updated = true
			break
		}
	}
	if !updated {
		entries = append(entries, entry{
			machine: record.Machine,
			fields: []field{
				{key: "login", value: record.Login},
				{key: "password", value: record.Password},
			},
		})
	}

	return s.write(entries)
}

// Remove deletes the record matching the server identity, using the same
// matching rule as Load.
func (s *FileStore) Remove(serverIdentity string) error {
	entries, err := s.read()
	if err != nil {
		return err
	}

	idx := matchIndex(entries, serverIdentity)
	if idx < 0 {
		return cverrors.ErrNotLoggedIn
	}

	entries = append(entries[:idx], entries[idx+1:]...)
	return s.write(entries)
}

func matchIndex(entries []entry, serverIdentity string) int {
	for i := range entries {
		if entries[i].machine == serverIdentity {
			return i
		}
	}
	for i := range entries {
		if strings.Contains(entries[i].machine, serverIdentity) {
			return i
		}
	}
	return -1
}

// read parses the store file. A missing file maps to ErrNotLoggedIn: the
// user has simply never logged in on this machine.
func (s *FileStore) read() ([]entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cverrors.ErrNotLoggedIn
		}
		return nil, fmt.Errorf("reading credential store %s: %w", s.path, err)
	}
	return parseNetrc(string(data)), nil
}

// parseNetrc tokenizes the netrc format: whitespace-separated key/value
// pairs, with `machine <name>` opening a new block. Tokens other than the
// well-known keys are preserved as pairs so foreign entries survive.
func parseNetrc(text string) []entry {
	tokens := strings.Fields(text)
	var entries []entry
	var current *entry

	for i := 0; i < len(tokens); i++ {
		if tokens[i] == "machine" && i+1 < len(tokens) {
			entries = append(entries, entry{machine: tokens[i+1]})
			current = &entries[len(entries)-1]
			i++
			continue
		}
		if current == nil {
			continue
		}
		if i+1 < len(tokens) {
			current.fields = append(current.fields, field{key: tokens[i], value: tokens[i+1]})
			i++
		}
	}
	return entries
}

func (s *FileStore) write(entries []entry) error {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "machine %s\n", sanitizeToken(e.machine))
		for _, f := range e.fields {
			fmt.Fprintf(&b, "%s %s\n", sanitizeToken(f.key), sanitizeToken(f.value))
		}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".netrc-*")
	if err != nil {
		return fmt.Errorf("creating temp credential file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing credential store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing credential store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing credential store: %w", err)
	}

	// Applied after every write, not just creation, so drift introduced by
	// other processes is corrected.
	if err := os.Chmod(s.path, ownerOnly); err != nil {
		return fmt.Errorf("restricting credential store permissions: %w", err)
	}
	return nil
}

// sanitizeToken strips characters that would corrupt the token stream.
func sanitizeToken(v string) string {
	v = strings.ReplaceAll(v, "\t", "")
	v = strings.ReplaceAll(v, "\n", "")
	return v
}

var _ Store = (*FileStore)(nil)

// Package credentials persists per-server login material. Two backends are
// provided: a netrc-format file protected by owner-only permissions (the
// default, compatible with stores written by earlier tooling) and the OS
// keyring.
package credentials

// Record is the login material kept for one server identity. After a
// successful login or key rotation Password holds the API key; the store
// never learns which it is.
type Record struct {
	Machine  string
	Login    string
	Password string
}

// Store reads and writes credential records keyed by machine. At most one
// record exists per machine.
type Store interface {
	// Load returns the record matching the server identity, or
	// cverrors.ErrNotLoggedIn when none matches.
	Load(serverIdentity string) (*Record, error)

	// Save creates or updates the record for its machine, leaving records
	// for other machines untouched.
	Save(record *Record) error

	// Remove deletes the record matching the server identity, or returns
	// cverrors.ErrNotLoggedIn when none matches.
	Remove(serverIdentity string) error
}

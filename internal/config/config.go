// Package config loads and validates the server connection profile. The
// profile is a small YAML file (by default ~/.covaultrc) describing which
// server this machine talks to; credentials never live here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/covaulthq/covault/internal/cverrors"
	"github.com/covaulthq/covault/internal/logging"
)

// Credential backend names accepted in the profile.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
)

// Config holds the runtime configuration assembled from global flags plus
// the loaded profile. Commands receive it by pointer; there are no
// package-level defaults to mutate.
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Insecure       bool

	Profile *Profile
}

// Profile is the persisted connection profile.
type Profile struct {
	ApplianceURL      string `yaml:"appliance_url"`
	Account           string `yaml:"account"`
	CertFile          string `yaml:"cert_file,omitempty"`
	CredentialBackend string `yaml:"credential_backend,omitempty"`
	NetrcPath         string `yaml:"netrc_path,omitempty"`
}

// DefaultProfilePath returns the profile location under the user's home
// directory, falling back to the working directory when home is unknown.
func DefaultProfilePath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".covaultrc")
	}
	return ".covaultrc"
}

// DefaultNetrcPath returns the credential file location used when the
// profile does not override it.
func DefaultNetrcPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".netrc")
	}
	return ".netrc"
}

// Load reads and validates the profile file.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return cverrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "connection profile not found",
				Suggestion: "Run 'covault init' to configure the server connection",
			}
		}
		return fmt.Errorf("reading profile %s: %w", c.Path, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return cverrors.ConfigError{
			Field:      "path",
			Value:      c.Path,
			Message:    "invalid YAML in connection profile",
			Suggestion: "Check for indentation errors or re-run 'covault init'",
		}
	}

	if err := profile.Validate(); err != nil {
		return err
	}

	c.Profile = &profile
	return nil
}

// Save writes the profile to the configured path, creating parent
// directories as needed. Profile files carry no secrets but are still
// written owner-only.
func (c *Config) Save(profile *Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	if dir := filepath.Dir(c.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating profile directory: %w", err)
		}
	}
	if err := os.WriteFile(c.Path, data, 0o600); err != nil {
		return fmt.Errorf("writing profile %s: %w", c.Path, err)
	}

	c.Profile = profile
	return nil
}

// Validate rejects incomplete or contradictory profiles at the boundary, so
// later layers can assume the fields they read are present and well formed.
func (p *Profile) Validate() error {
	if p.ApplianceURL == "" {
		return cverrors.ConfigError{
			Field:      "appliance_url",
			Message:    "missing server URL",
			Suggestion: "Run 'covault init --url https://vault.example.com'",
		}
	}
	if p.Account == "" {
		return cverrors.ConfigError{
			Field:      "account",
			Message:    "missing organization account name",
			Suggestion: "Run 'covault init --account <name>'",
		}
	}
	switch p.CredentialBackend {
	case "", BackendFile, BackendKeyring:
	default:
		return cverrors.ConfigError{
			Field:      "credential_backend",
			Value:      p.CredentialBackend,
			Message:    "unknown credential backend",
			Suggestion: fmt.Sprintf("Use '%s' or '%s'", BackendFile, BackendKeyring),
		}
	}
	return nil
}

// Backend returns the effective credential backend name.
func (p *Profile) Backend() string {
	if p.CredentialBackend == "" {
		return BackendFile
	}
	return p.CredentialBackend
}

// CredentialFile returns the effective netrc path.
func (p *Profile) CredentialFile() string {
	if p.NetrcPath != "" {
		return p.NetrcPath
	}
	return DefaultNetrcPath()
}

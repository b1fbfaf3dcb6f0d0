package commands

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/covaulthq/covault/internal/account"
	"github.com/covaulthq/covault/internal/api"
	"github.com/covaulthq/covault/internal/config"
	"github.com/covaulthq/covault/internal/credentials"
	"github.com/covaulthq/covault/internal/cverrors"
)

// buildClient loads the connection profile (if not already loaded) and
// constructs the API client from it plus the runtime flags.
func buildClient(cfg *config.Config) (*api.Client, error) {
	if cfg.Profile == nil {
		if err := cfg.Load(); err != nil {
			return nil, err
		}
	}
	return api.NewClient(api.ClientConfig{
		ApplianceURL: cfg.Profile.ApplianceURL,
		Account:      cfg.Profile.Account,
		TLSVerify:    !cfg.Insecure,
		CABundle:     cfg.Profile.CertFile,
	}, cfg.Logger), nil
}

// buildStore selects the credential backend named in the profile.
func buildStore(cfg *config.Config) (credentials.Store, error) {
	if cfg.Profile == nil {
		if err := cfg.Load(); err != nil {
			return nil, err
		}
	}
	switch cfg.Profile.Backend() {
	case config.BackendKeyring:
		return credentials.NewKeyringStore(cfg.Logger), nil
	default:
		return credentials.NewFileStore(cfg.Profile.CredentialFile(), cfg.Logger), nil
	}
}

// buildLifecycle wires the account layer. Callers must Close it.
func buildLifecycle(cfg *config.Config) (*account.Lifecycle, error) {
	client, err := buildClient(cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	return account.NewLifecycle(client, store, cfg.Logger), nil
}

// promptLine reads one line from stdin after printing the prompt.
func promptLine(cfg *config.Config, prompt string) (string, error) {
	if cfg.NonInteractive {
		return "", cverrors.ConfigError{
			Message:    "input required but running non-interactively",
			Suggestion: "Provide the value with a flag, or drop --non-interactive",
		}
	}
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a value with terminal echo disabled.
func promptSecret(cfg *config.Config, prompt string) (string, error) {
	if cfg.NonInteractive {
		return "", cverrors.ConfigError{
			Message:    "secret input required but running non-interactively",
			Suggestion: "Provide the value with a flag, or drop --non-interactive",
		}
	}
	fmt.Fprint(os.Stderr, prompt)
	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret input: %w", err)
	}
	return string(value), nil
}

// confirm asks a yes/no question, defaulting to no.
func confirm(cfg *config.Config, question string) (bool, error) {
	answer, err := promptLine(cfg, question+" [y/N]: ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// splitHostPort extracts the TLS endpoint from an appliance URL, defaulting
// the port to 443.
func splitHostPort(applianceURL string) (string, int, error) {
	parsed, err := url.Parse(applianceURL)
	if err != nil || parsed.Hostname() == "" {
		return "", 0, cverrors.ConfigError{
			Field:      "appliance_url",
			Value:      applianceURL,
			Message:    "not a valid URL",
			Suggestion: "Use the form https://vault.example.com[:port]",
		}
	}

	port := 443
	if parsed.Port() != "" {
		port, err = strconv.Atoi(parsed.Port())
		if err != nil {
			return "", 0, cverrors.ConfigError{
				Field:   "appliance_url",
				Value:   applianceURL,
				Message: "invalid port",
			}
		}
	}
	return parsed.Hostname(), port, nil
}

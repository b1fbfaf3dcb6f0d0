package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/covaulthq/covault/internal/config"
	"github.com/covaulthq/covault/internal/cverrors"
	"github.com/covaulthq/covault/internal/trust"
)

// NewInitCommand writes the server connection profile. When the server is
// reached over HTTPS and no CA file is supplied, the certificate chain is
// fetched for fingerprint confirmation and persisted on acceptance.
func NewInitCommand(cfg *config.Config) *cobra.Command {
	var (
		applianceURL string
		accountName  string
		certFile     string
		certOut      string
		backend      string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the connection to the secrets server",
		Long: `Initialize the connection profile for a secrets server.

When no CA bundle is supplied, the server's certificate chain is retrieved
and its fingerprint shown for manual confirmation before being trusted.

Examples:
  covault init --url https://vault.example.com --account default
  covault init --url https://vault.example.com --account default --cert-file ./ca.pem`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if applianceURL == "" {
				if applianceURL, err = promptLine(cfg, "Enter the URL of your secrets server: "); err != nil {
					return err
				}
			}
			if accountName == "" {
				if accountName, err = promptLine(cfg, "Enter your organization account name: "); err != nil {
					return err
				}
			}

			if certFile == "" && strings.HasPrefix(applianceURL, "https://") {
				certFile, err = confirmServerCertificate(cfg, cmd, applianceURL, certOut, force)
				if err != nil {
					return err
				}
			}

			profile := &config.Profile{
				ApplianceURL:      strings.TrimSuffix(applianceURL, "/"),
				Account:           accountName,
				CertFile:          certFile,
				CredentialBackend: backend,
			}
			if err := cfg.Save(profile); err != nil {
				return err
			}
			cfg.Logger.Info("Configuration written to %s", cfg.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&applianceURL, "url", "u", "", "Secrets server URL")
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "Organization account name")
	cmd.Flags().StringVarP(&certFile, "cert-file", "c", "", "Path to an existing CA bundle (skips fingerprint confirmation)")
	cmd.Flags().StringVar(&certOut, "cert-out", "", "Where to write the accepted certificate chain (default ~/covault-server.pem)")
	cmd.Flags().StringVar(&backend, "credential-backend", "", "Credential storage backend: file or keyring")
	cmd.Flags().BoolVar(&force, "force", false, "Trust the retrieved certificate without prompting")

	return cmd
}

// confirmServerCertificate runs the trust-on-first-use flow: fetch, show,
// confirm, persist. Returns the path of the persisted chain.
func confirmServerCertificate(cfg *config.Config, cmd *cobra.Command, applianceURL, certOut string, force bool) (string, error) {
	host, port, err := splitHostPort(applianceURL)
	if err != nil {
		return "", err
	}

	bundle, err := trust.NewService(cfg.Logger).GetCertificate(cmd.Context(), host, port)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nThe server presented this certificate:\n\n")
	fmt.Fprintf(cmd.OutOrStdout(), "SHA-1 fingerprint: %s\n\n%s\n", bundle.Fingerprint, bundle.PEM)

	if !force {
		if cfg.NonInteractive {
			return "", cverrors.ConfigError{
				Message:    "certificate confirmation required but running non-interactively",
				Suggestion: "Re-run with --force to trust it, or supply --cert-file",
			}
		}
		accepted, err := confirm(cfg, "Trust this certificate?")
		if err != nil {
			return "", err
		}
		if !accepted {
			return "", fmt.Errorf("certificate rejected, configuration aborted")
		}
	}

	if certOut == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locating home directory: %w", err)
		}
		certOut = filepath.Join(home, "covault-server.pem")
	}
	if err := os.WriteFile(certOut, []byte(bundle.PEM), 0o644); err != nil {
		return "", fmt.Errorf("writing certificate to %s: %w", certOut, err)
	}
	cfg.Logger.Info("Certificate written to %s", certOut)
	return certOut, nil
}

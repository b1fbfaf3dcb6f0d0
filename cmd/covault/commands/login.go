package commands

import (
	"github.com/spf13/cobra"

	"github.com/covaulthq/covault/internal/config"
)

// NewLoginCommand exchanges a password for an API key and persists it in
// the credential store.
func NewLoginCommand(cfg *config.Config) *cobra.Command {
	var (
		loginID  string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the secrets server",
		Long: `Authenticate against the configured server and store the resulting
API key locally. The password is exchanged for a long-lived API key; the
password itself is never written to disk.

Examples:
  covault login
  covault login -i alice
  covault login -i alice -p <password>   # for scripted use only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := buildLifecycle(cfg)
			if err != nil {
				return err
			}
			defer lc.Close()

			if loginID == "" {
				if loginID, err = promptLine(cfg, "Enter your login id: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptSecret(cfg, "Enter your password or API key: "); err != nil {
					return err
				}
			}

			apiKey, err := lc.Login(cmd.Context(), loginID, password)
			if err != nil {
				return err
			}
			if err := lc.StoreCredentials(loginID, apiKey); err != nil {
				return err
			}

			cfg.Logger.Info("Successfully logged in as %s", loginID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&loginID, "id", "i", "", "Login id")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password or API key (prompted when omitted)")

	return cmd
}

// NewLogoutCommand removes the stored credentials for the configured server.
func NewLogoutCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := buildLifecycle(cfg)
			if err != nil {
				return err
			}
			defer lc.Close()

			if err := lc.Logout(cmd.Context()); err != nil {
				return err
			}
			cfg.Logger.Info("Successfully logged out")
			return nil
		},
	}
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/covaulthq/covault/internal/config"
	"github.com/covaulthq/covault/internal/validation"
)

// NewUserCommand groups account self-service operations.
func NewUserCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage your account (API key rotation, password change)",
	}
	cmd.AddCommand(
		newRotateAPIKeyCommand(cfg),
		newChangePasswordCommand(cfg),
	)
	return cmd
}

func newRotateAPIKeyCommand(cfg *config.Config) *cobra.Command {
	var targetUser string

	cmd := &cobra.Command{
		Use:   "rotate-api-key",
		Short: "Rotate an API key",
		Long: `Rotate your own API key, or another user's when --id is given.

Rotating your own key updates the local credential store in place. Rotating
another user's key prints the new key for delivery to that user; it is not
stored locally.

Examples:
  covault user rotate-api-key
  covault user rotate-api-key --id bob`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := buildLifecycle(cfg)
			if err != nil {
				return err
			}
			defer lc.Close()

			newKey, err := lc.RotateAPIKey(cmd.Context(), targetUser)
			if err != nil {
				return err
			}

			if targetUser == "" {
				cfg.Logger.Info("Your API key was rotated and stored")
				return nil
			}
			cfg.Logger.Info("API key for %s was rotated", targetUser)
			fmt.Fprintln(cmd.OutOrStdout(), newKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetUser, "id", "", "Rotate this user's key instead of your own")
	return cmd
}

func newChangePasswordCommand(cfg *config.Config) *cobra.Command {
	var newPassword string

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := buildLifecycle(cfg)
			if err != nil {
				return err
			}
			defer lc.Close()

			if newPassword == "" {
				if newPassword, err = promptSecret(cfg, "Enter your new password: "); err != nil {
					return err
				}
			}

			// Fast local feedback; the server remains authoritative.
			if result := validation.CheckPasswordComplexity(newPassword); !result.Valid {
				return fmt.Errorf("%s", strings.Join(result.Errors, "; "))
			}

			userID, err := lc.ChangePassword(cmd.Context(), newPassword)
			if err != nil {
				return err
			}
			cfg.Logger.Info("Password changed for %s", userID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&newPassword, "password", "p", "", "New password (prompted when omitted)")
	return cmd
}

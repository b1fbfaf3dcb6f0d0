package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covaulthq/covault/internal/config"
)

// NewVariableCommand groups secret variable operations.
func NewVariableCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "variable",
		Short: "Get and set secret variables",
	}
	cmd.AddCommand(
		newVariableGetCommand(cfg),
		newVariableSetCommand(cfg),
	)
	return cmd
}

func newVariableGetCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <variable-id>",
		Short: "Retrieve the value of a secret variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient(cfg)
			if err != nil {
				return err
			}
			lc, err := buildLifecycle(cfg)
			if err != nil {
				return err
			}
			defer lc.Close()

			token, err := lc.Token(cmd.Context())
			if err != nil {
				return err
			}
			value, err := client.GetSecret(cmd.Context(), token, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newVariableSetCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set <variable-id> <value>",
		Short: "Store a new value for a secret variable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient(cfg)
			if err != nil {
				return err
			}
			lc, err := buildLifecycle(cfg)
			if err != nil {
				return err
			}
			defer lc.Close()

			token, err := lc.Token(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.SetSecret(cmd.Context(), token, args[0], args[1]); err != nil {
				return err
			}
			cfg.Logger.Info("Value set for variable %s", args[0])
			return nil
		},
	}
}

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covaulthq/covault/internal/config"
)

// NewWhoAmICommand prints the server's view of the authenticated caller.
func NewWhoAmICommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity bound to the current credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := buildLifecycle(cfg)
			if err != nil {
				return err
			}
			defer lc.Close()

			identity, err := lc.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(identity, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding identity: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

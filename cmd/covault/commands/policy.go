package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covaulthq/covault/internal/api"
	"github.com/covaulthq/covault/internal/config"
)

// NewPolicyCommand groups policy management operations. Policy documents
// are streamed to the server untouched; rendering the server's response is
// all the client does with them.
func NewPolicyCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Load policy documents into the server",
	}
	cmd.AddCommand(
		newPolicyApplyCommand(cfg, "load", "Append a policy document to a branch", api.PolicyModeAppend),
		newPolicyApplyCommand(cfg, "replace", "Replace a policy branch with a document", api.PolicyModeReplace),
		newPolicyApplyCommand(cfg, "update", "Update a policy branch, allowing deletions", api.PolicyModeUpdate),
	)
	return cmd
}

func newPolicyApplyCommand(cfg *config.Config, verb, short string, mode api.PolicyMode) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <branch> <file>", verb),
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch, path := args[0], args[1]

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening policy file %s: %w", path, err)
			}
			defer file.Close()

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
			result, err := client.LoadPolicy(cmd.Context(), token, branch, file, mode)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

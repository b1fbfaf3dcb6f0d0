package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/covaulthq/covault/cmd/covault/commands"
	"github.com/covaulthq/covault/internal/config"
	"github.com/covaulthq/covault/internal/cverrors"
	"github.com/covaulthq/covault/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Wipe any remaining enclave material on the way out.
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cverrors.ErrNotLoggedIn) {
			fmt.Fprintln(os.Stderr, "Run 'covault login' first.")
		}
		os.Exit(1)
	}
}

func run() error {
	var (
		profilePath    string
		noColor        bool
		debug          bool
		nonInteractive bool
		insecure       bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "covault",
		Short: "Command-line client for the covault secrets server",
		Long: `covault authenticates against a secrets server, manages the local
credentials it issues, and retrieves or updates secret values and policies.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logging.New(debug, noColor)

			cfg.Path = profilePath
			cfg.Logger = logger
			cfg.NonInteractive = nonInteractive
			cfg.Insecure = insecure

			if insecure {
				logger.Warn("TLS certificate verification is disabled")
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&profilePath, "config", config.DefaultProfilePath(), "Connection profile path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Fail instead of prompting for input")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")

	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewLoginCommand(cfg),
		commands.NewLogoutCommand(cfg),
		commands.NewWhoAmICommand(cfg),
		commands.NewUserCommand(cfg),
		commands.NewVariableCommand(cfg),
		commands.NewPolicyCommand(cfg),
	)

	return rootCmd.Execute()
}

package cli

import (
	"errors"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "paradox",
		Short: "CLI tool for the Paradox treasure hunt API",
		Long: `paradox is a CLI tool for interacting with the Paradox treasure hunt API.

It covers registration, hint purchases, answer submission, referrals, the
leaderboard, the content catalog, and real-time SSE event streaming.

Commands act as the identity saved by "paradox user register", or the one
given with --identity.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load identity from file if not provided via flag/env
			if err := cfg.LoadIdentity(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL)
			if cfg.Verbose {
				client.trace = cmd.ErrOrStderr()
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: PARADOX_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Identity, "identity", cfg.Identity, "Acting identity (env: PARADOX_IDENTITY)")
	rootCmd.PersistentFlags().StringVar(&cfg.IdentityFile, "identity-file", cfg.IdentityFile, "Identity file path (env: PARADOX_IDENTITY_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newHintCmd())
	rootCmd.AddCommand(newAnswerCmd())
	rootCmd.AddCommand(newReferralCmd())
	rootCmd.AddCommand(newCoinsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newMembersCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

var errNoIdentity = errors.New("no identity: run 'paradox user register' or pass --identity")

func outputFor(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// identityArg resolves the identity a command acts on: the first positional
// argument when present, otherwise the configured identity.
func identityArg(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Identity == "" {
		return "", errNoIdentity
	}
	return cfg.Identity, nil
}

func userPath(id string, suffix string) string {
	return "/api/v1/user/" + url.PathEscape(id) + suffix
}

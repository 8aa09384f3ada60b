package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/provision/internal/domain/config"
	"github.com/felixgeelhaar/provision/internal/validation"
)

var (
	// Global flags
	manifestPath     string
	verbose          bool
	logFormat        string
	logDir           string
	backupDir        string
	managerName      string
	skipNetworkCheck bool
	networkHost      string
	yesFlag          bool
	nonInteractive   bool
)

var rootCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision a developer workstation",
	Long: `Provision installs packages and writes dotfiles from a declarative manifest.

Every entry is probed before it runs, so re-running after a failure only
does the remaining work. Each run validates the environment, asks once
before starting, and ends with a summary of what was installed, skipped
and failed. A session log is kept under ~/.provision/logs.`,
	SilenceErrors:     true, // We handle error formatting ourselves
	SilenceUsage:      true, // Don't show usage on error
	PersistentPreRunE: validateFlags,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&manifestPath, "manifest", "m", "", "manifest file, .yaml or .toml (default: built-in manifest)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&logFormat, "log-format", "text", "console log format (text, json)")
	flags.StringVar(&logDir, "log-dir", "", "session log directory (default: ~/.provision/logs)")
	flags.StringVar(&backupDir, "backup-dir", "", "backup root directory (default: ~/.provision/backups)")
	flags.StringVar(&managerName, "manager", "", "package manager to use instead of the detected one")
	flags.BoolVar(&skipNetworkCheck, "skip-network-check", false, "skip the network reachability check")
	flags.StringVar(&networkHost, "network-host", "", "host:port to dial for the network check")
	flags.BoolVarP(&yesFlag, "yes", "y", false, "answer yes to every confirmation")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "take the default answer for every confirmation")

	rootCmd.MarkFlagsMutuallyExclusive("yes", "non-interactive")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// validateFlags rejects flag values before any work starts.
func validateFlags(_ *cobra.Command, _ []string) error {
	switch logFormat {
	case "text", "json":
	default:
		return config.NewUserError(config.ErrCodeValidationFailed, fmt.Sprintf("unknown log format %q", logFormat)).
			WithSuggestion("Use --log-format text or --log-format json.")
	}

	if managerName != "" {
		if err := config.ValidateManagerName(managerName); err != nil {
			return err
		}
	}

	if networkHost != "" {
		if err := validation.ValidateHostPort(networkHost); err != nil {
			return config.NewUserError(config.ErrCodeValidationFailed, "invalid --network-host").
				WithSuggestion("Use host:port, e.g. github.com:443.").
				WithUnderlying(err)
		}
	}

	return nil
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}

	var list *config.ErrorList
	if errors.As(err, &list) {
		return "invalid manifest:\n" + list.Format()
	}

	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("manifest", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("manager", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.KnownManagers, cobra.ShellCompDirectiveNoFileComp
	})

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"text\tColored, leveled text",
			"json\tOne JSON object per line",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision this machine from the manifest",
	Long: `Run validates the environment, asks once before starting, then executes
every step of the manifest in order.

Entries already in place are skipped. A failed install is recorded and the
run continues; anything unexpected aborts the run with a partial report.
Interrupting with Ctrl-C stops at the next entry.

Examples:
  provision run                          # Built-in manifest, ask before starting
  provision run -m workstation.yaml      # Custom manifest
  provision run --yes                    # Answer yes to every question
  provision run --non-interactive        # Take every default answer`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := loadManifest()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s, err := openSession(out, time.Now())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	_, err = s.provisioner(out).Run(ctx, m, s.session)
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

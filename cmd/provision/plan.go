package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/provision/internal/app"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what provision would change",
	Long: `Plan loads the manifest and probes every entry without changing anything.

This command:
1. Runs the environment checks
2. Resolves package names for the selected package manager
3. Checks what is already installed or written
4. Shows what a run would do (without asking or applying)`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	m, err := loadManifest()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	opts := append([]app.Option{
		app.WithLogger(newConsoleLogger(cmd.ErrOrStderr())),
		app.WithStyles(consoleStyles(out)),
	}, appOptions()...)
	provisioner := app.New(out, opts...)

	preview, err := provisioner.Plan(commandContext(cmd), m)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	provisioner.PrintPlan(preview)
	return nil
}

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/provision/internal/adapters/filesystem"
	"github.com/felixgeelhaar/provision/internal/domain/backup"
	"github.com/felixgeelhaar/provision/internal/domain/config"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/pathutil"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the built-in manifest to a file",
	Long: `Init writes the manifest shipped with provision so it can be edited.

An existing file is only replaced with --force, and is backed up to
~/.provision/backups first.

Examples:
  provision init                         # Writes ./provision.yaml
  provision init ~/dotfiles/setup.yaml   # Custom location
  provision init --force                 # Replace, keeping a backup`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file (a backup is kept)")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	expander := pathutil.NewHomeExpander()
	path := config.DefaultManifestName
	if len(args) == 1 {
		path = expander.Expand(args[0])
	}

	fsys := filesystem.NewRealFileSystem()
	now := time.Now()
	guard := backup.NewGuard(fsys, backup.RunDir(resolvePaths(expander).BackupRoot, now))

	saved, err := writeManifest(fsys, guard, path, initForce)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if saved != "" {
		_, _ = fmt.Fprintf(out, "Backed up %s to %s\n", path, saved)
	}
	_, _ = fmt.Fprintf(out, "Manifest written: %s\n", path)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintf(out, "  provision plan -m %s   - Review what would change\n", path)
	_, _ = fmt.Fprintf(out, "  provision run -m %s    - Provision this machine\n", path)
	return nil
}

// writeManifest writes the built-in manifest to path. An existing file is
// replaced only when force is set, after guard has copied it aside.
func writeManifest(fsys ports.FileSystem, guard ports.BackupGuard, path string, force bool) (string, error) {
	if format, ok := config.FormatFromPath(path); !ok || format != config.FormatYAML {
		return "", &config.UserError{
			Code:       config.ErrCodeConfigFormat,
			Message:    "unsupported manifest format",
			Context:    path,
			Suggestion: "The built-in manifest is YAML; use a .yaml or .yml path.",
		}
	}

	var saved string
	if fsys.Exists(path) {
		if !force {
			return "", &config.UserError{
				Code:       config.ErrCodeFileExists,
				Message:    "manifest already exists",
				Context:    path,
				Suggestion: "Use --force to overwrite it; the current file is backed up first.",
			}
		}
		var err error
		if saved, err = guard.Backup(path); err != nil {
			return "", err
		}
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := fsys.WriteFile(path, config.DefaultManifest(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return saved, nil
}

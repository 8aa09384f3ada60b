// Package winget implements ports.PackageManager for the Windows Package
// Manager, including winget.exe called from WSL.
package winget

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/provision/internal/domain/platform"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/commandutil"
	"github.com/felixgeelhaar/provision/internal/validation"
)

// Manager installs packages by winget ID.
type Manager struct {
	runner   ports.CommandRunner
	platform *platform.Platform
}

// New creates a winget Manager. plat may be nil.
func New(runner ports.CommandRunner, plat *platform.Platform) *Manager {
	return &Manager{runner: runner, platform: plat}
}

// Name returns "winget".
func (m *Manager) Name() string {
	return "winget"
}

// command returns winget.exe under WSL, where Windows binaries keep their
// extension.
func (m *Manager) command() string {
	if m.platform != nil && m.platform.IsWSL() {
		return "winget.exe"
	}
	return "winget"
}

// Available reports whether winget can be run.
func (m *Manager) Available(ctx context.Context) bool {
	ok, err := commandutil.Succeeds(ctx, m.runner, m.command(), "--version")
	return err == nil && ok
}

// IsInstalled lists the exact package ID.
func (m *Manager) IsInstalled(ctx context.Context, pkg ports.Package) (bool, error) {
	if err := validate(pkg); err != nil {
		return false, err
	}

	result, err := m.runner.Run(ctx, m.command(), "list", "--id", pkg.Name, "--exact", "--accept-source-agreements")
	if err != nil {
		if commandutil.IsCommandNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !result.Success() {
		return false, nil
	}
	installed, found := listedVersion(result.Stdout, pkg.Name)
	if !found {
		return false, nil
	}
	return pkg.Version == "" || installed == pkg.Version, nil
}

// listedVersion finds the row for id in `winget list` output and returns the
// column after it. Names may contain spaces, so the row is keyed on the ID.
func listedVersion(output, id string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		for i, f := range fields {
			if !strings.EqualFold(f, id) {
				continue
			}
			if i+1 < len(fields) {
				return fields[i+1], true
			}
			return "", true
		}
	}
	return "", false
}

// Install runs a silent winget install.
func (m *Manager) Install(ctx context.Context, pkg ports.Package) error {
	if err := validate(pkg); err != nil {
		return err
	}

	args := []string{"install", "--id", pkg.Name, "--exact", "--accept-source-agreements", "--accept-package-agreements", "--silent"}
	if pkg.Version != "" {
		args = append(args, "--version", pkg.Version)
	}
	return commandutil.Exec(ctx, m.runner, m.command(), args...)
}

// Refresh updates the winget sources.
func (m *Manager) Refresh(ctx context.Context) error {
	return commandutil.Exec(ctx, m.runner, m.command(), "source", "update")
}

func validate(pkg ports.Package) error {
	if err := validation.ValidateWingetID(pkg.Name); err != nil {
		return fmt.Errorf("invalid package ID: %w", err)
	}
	if err := validation.ValidateVersion(pkg.Version); err != nil {
		return fmt.Errorf("invalid package version: %w", err)
	}
	return nil
}

var _ ports.PackageManager = (*Manager)(nil)

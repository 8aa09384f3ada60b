// Package chocolatey implements ports.PackageManager for Chocolatey.
package chocolatey

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/provision/internal/domain/platform"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/commandutil"
	"github.com/felixgeelhaar/provision/internal/validation"
)

// Manager installs packages with choco.
type Manager struct {
	runner   ports.CommandRunner
	platform *platform.Platform
}

// New creates a Chocolatey Manager. plat may be nil.
func New(runner ports.CommandRunner, plat *platform.Platform) *Manager {
	return &Manager{runner: runner, platform: plat}
}

// Name returns "chocolatey".
func (m *Manager) Name() string {
	return "chocolatey"
}

func (m *Manager) command() string {
	if m.platform != nil && m.platform.IsWSL() {
		return "choco.exe"
	}
	return "choco"
}

// Available reports whether choco can be run.
func (m *Manager) Available(ctx context.Context) bool {
	ok, err := commandutil.Succeeds(ctx, m.runner, m.command(), "--version")
	return err == nil && ok
}

// IsInstalled parses `choco list --limit-output`, which prints one
// name|version line per installed package.
func (m *Manager) IsInstalled(ctx context.Context, pkg ports.Package) (bool, error) {
	if err := validate(pkg); err != nil {
		return false, err
	}

	result, err := m.runner.Run(ctx, m.command(), "list", "--local-only", "--exact", "--limit-output", pkg.Name)
	if err != nil {
		if commandutil.IsCommandNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !result.Success() {
		return false, nil
	}

	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		name, version, found := strings.Cut(strings.TrimSpace(line), "|")
		if !found || !strings.EqualFold(name, pkg.Name) {
			continue
		}
		return pkg.Version == "" || version == pkg.Version, nil
	}
	return false, nil
}

// Install runs choco install.
func (m *Manager) Install(ctx context.Context, pkg ports.Package) error {
	if err := validate(pkg); err != nil {
		return err
	}

	args := []string{"install", pkg.Name, "-y", "--no-progress"}
	if pkg.Version != "" {
		args = append(args, "--version="+pkg.Version)
	}
	return commandutil.Exec(ctx, m.runner, m.command(), args...)
}

// Refresh is a no-op: Chocolatey queries its sources on every install.
func (m *Manager) Refresh(_ context.Context) error {
	return nil
}

func validate(pkg ports.Package) error {
	if err := validation.ValidateChocoPackage(pkg.Name); err != nil {
		return fmt.Errorf("invalid package name: %w", err)
	}
	if err := validation.ValidateVersion(pkg.Version); err != nil {
		return fmt.Errorf("invalid package version: %w", err)
	}
	return nil
}

var _ ports.PackageManager = (*Manager)(nil)

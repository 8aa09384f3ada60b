// Package dnf implements ports.PackageManager for Fedora and RHEL.
package dnf

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/commandutil"
	"github.com/felixgeelhaar/provision/internal/validation"
)

// Manager installs packages with dnf and queries them with rpm.
type Manager struct {
	runner ports.CommandRunner
	sudo   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithSudo controls whether mutating commands run through sudo (default true).
func WithSudo(enabled bool) Option {
	return func(m *Manager) {
		m.sudo = enabled
	}
}

// New creates a dnf Manager.
func New(runner ports.CommandRunner, opts ...Option) *Manager {
	m := &Manager{runner: runner, sudo: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns "dnf".
func (m *Manager) Name() string {
	return "dnf"
}

// Available reports whether dnf can be run.
func (m *Manager) Available(ctx context.Context) bool {
	ok, err := commandutil.Succeeds(ctx, m.runner, "dnf", "--version")
	return err == nil && ok
}

// IsInstalled queries the rpm database.
func (m *Manager) IsInstalled(ctx context.Context, pkg ports.Package) (bool, error) {
	if err := validate(pkg); err != nil {
		return false, err
	}

	result, err := m.runner.Run(ctx, "rpm", "-q", "--queryformat", "%{VERSION}", pkg.Name)
	if err != nil {
		if commandutil.IsCommandNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !result.Success() {
		return false, nil
	}
	if pkg.Version == "" {
		return true, nil
	}
	return strings.TrimSpace(result.Stdout) == pkg.Version, nil
}

// Install runs dnf install.
func (m *Manager) Install(ctx context.Context, pkg ports.Package) error {
	if err := validate(pkg); err != nil {
		return err
	}

	spec := pkg.Name
	if pkg.Version != "" {
		spec = pkg.Name + "-" + pkg.Version
	}
	cmd, args := commandutil.Sudo(m.sudo, "dnf", "install", "-y", "-q", spec)
	return commandutil.Exec(ctx, m.runner, cmd, args...)
}

// Refresh rebuilds the metadata cache.
func (m *Manager) Refresh(ctx context.Context) error {
	cmd, args := commandutil.Sudo(m.sudo, "dnf", "makecache", "-q")
	return commandutil.Exec(ctx, m.runner, cmd, args...)
}

func validate(pkg ports.Package) error {
	if err := validation.ValidatePackageName(pkg.Name); err != nil {
		return fmt.Errorf("invalid package name: %w", err)
	}
	if err := validation.ValidateVersion(pkg.Version); err != nil {
		return fmt.Errorf("invalid package version: %w", err)
	}
	return nil
}

var _ ports.PackageManager = (*Manager)(nil)

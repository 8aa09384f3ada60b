// Package apt implements ports.PackageManager for Debian and Ubuntu.
package apt

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/commandutil"
	"github.com/felixgeelhaar/provision/internal/validation"
)

// Manager installs packages with apt-get.
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

// New creates an apt Manager.
func New(runner ports.CommandRunner, opts ...Option) *Manager {
	m := &Manager{runner: runner, sudo: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns "apt".
func (m *Manager) Name() string {
	return "apt"
}

// Available reports whether apt-get can be run.
func (m *Manager) Available(ctx context.Context) bool {
	ok, err := commandutil.Succeeds(ctx, m.runner, "apt-get", "--version")
	return err == nil && ok
}

// IsInstalled queries dpkg. A pinned version must match the installed one.
func (m *Manager) IsInstalled(ctx context.Context, pkg ports.Package) (bool, error) {
	if err := validate(pkg); err != nil {
		return false, err
	}

	result, err := m.runner.Run(ctx, "dpkg-query", "-W", "-f=${db:Status-Status}\t${Version}", pkg.Name)
	if err != nil {
		if commandutil.IsCommandNotFound(err) {
			return false, nil
		}
		return false, err
	}
	// dpkg-query exits 1 for unknown packages.
	if !result.Success() {
		return false, nil
	}

	status, version, _ := strings.Cut(strings.TrimSpace(result.Stdout), "\t")
	if status != "installed" {
		return false, nil
	}
	return pkg.Version == "" || version == pkg.Version, nil
}

// Install runs apt-get install non-interactively.
func (m *Manager) Install(ctx context.Context, pkg ports.Package) error {
	if err := validate(pkg); err != nil {
		return err
	}

	spec := pkg.Name
	if pkg.Version != "" {
		spec = pkg.Name + "=" + pkg.Version
	}
	cmd, args := commandutil.Sudo(m.sudo, "apt-get", "install", "-y", "-q", spec)
	return commandutil.Exec(ctx, m.runner, cmd, args...)
}

// Refresh runs apt-get update.
func (m *Manager) Refresh(ctx context.Context) error {
	cmd, args := commandutil.Sudo(m.sudo, "apt-get", "update", "-q")
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

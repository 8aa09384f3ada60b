// Package brew implements ports.PackageManager for Homebrew formulae and
// casks.
package brew

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/commandutil"
	"github.com/felixgeelhaar/provision/internal/validation"
)

// Manager installs formulae and casks with brew. Homebrew refuses to run
// as root, so nothing goes through sudo.
type Manager struct {
	runner ports.CommandRunner
}

// New creates a brew Manager.
func New(runner ports.CommandRunner) *Manager {
	return &Manager{runner: runner}
}

// Name returns "brew".
func (m *Manager) Name() string {
	return "brew"
}

// Available reports whether brew can be run.
func (m *Manager) Available(ctx context.Context) bool {
	ok, err := commandutil.Succeeds(ctx, m.runner, "brew", "--version")
	return err == nil && ok
}

// IsInstalled scans `brew list` for the formula or cask. A versioned formula
// is looked up by the same name@version that Install uses.
func (m *Manager) IsInstalled(ctx context.Context, pkg ports.Package) (bool, error) {
	if err := validate(pkg); err != nil {
		return false, err
	}

	name := target(pkg)
	result, err := m.runner.Run(ctx, "brew", "list", kindFlag(pkg), "--versions", name)
	if err != nil {
		if commandutil.IsCommandNotFound(err) {
			return false, nil
		}
		return false, err
	}
	// brew list exits 1 when the formula is not installed.
	if !result.Success() {
		return false, nil
	}

	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == name {
			return true, nil
		}
	}
	return false, nil
}

// Install runs brew install. Versioned formulae use the name@version form.
func (m *Manager) Install(ctx context.Context, pkg ports.Package) error {
	if err := validate(pkg); err != nil {
		return err
	}

	args := []string{"install"}
	if pkg.Cask {
		args = append(args, "--cask")
	}
	args = append(args, target(pkg))
	return commandutil.Exec(ctx, m.runner, "brew", args...)
}

// Refresh runs brew update.
func (m *Manager) Refresh(ctx context.Context) error {
	return commandutil.Exec(ctx, m.runner, "brew", "update", "--quiet")
}

// target is the formula or cask name brew knows the package by. Casks have
// no versioned names, so their version is ignored.
func target(pkg ports.Package) string {
	if pkg.Version != "" && !pkg.Cask {
		return pkg.Name + "@" + pkg.Version
	}
	return pkg.Name
}

func kindFlag(pkg ports.Package) string {
	if pkg.Cask {
		return "--cask"
	}
	return "--formula"
}

func validate(pkg ports.Package) error {
	if err := validation.ValidatePackageName(pkg.Name); err != nil {
		return fmt.Errorf("invalid formula name: %w", err)
	}
	if err := validation.ValidateVersion(pkg.Version); err != nil {
		return fmt.Errorf("invalid formula version: %w", err)
	}
	return nil
}

var _ ports.PackageManager = (*Manager)(nil)

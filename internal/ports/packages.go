package ports

import "context"

// Package identifies something a package manager can install.
type Package struct {
	// Name is the manager-specific identifier (formula, apt package, winget ID).
	Name string
	// Version pins a version when non-empty.
	Version string
	// Cask marks Homebrew casks; other managers ignore it.
	Cask bool
}

// String returns the package with its version pin, if any.
func (p Package) String() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "@" + p.Version
}

// PackageManager is the capability every native package manager provides.
// Work units depend on this interface only, never on a concrete manager.
type PackageManager interface {
	// Name returns the manager's short name, such as "apt" or "brew".
	Name() string

	// Available reports whether the manager binary can be invoked.
	Available(ctx context.Context) bool

	// IsInstalled reports whether pkg is already present.
	IsInstalled(ctx context.Context, pkg Package) (bool, error)

	// Install installs pkg. A non-nil error means the install failed.
	Install(ctx context.Context, pkg Package) error

	// Refresh updates the manager's package index.
	Refresh(ctx context.Context) error
}

// Package packages adapts a ports.PackageManager into work units.
package packages

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/provision/internal/domain/execution"
	"github.com/felixgeelhaar/provision/internal/ports"
)

// Unit installs one package. It is satisfied when the manager reports the
// package as installed.
type Unit struct {
	name    string
	manager ports.PackageManager
	pkg     ports.Package
}

// NewUnit creates a Unit. name is the ledger name; pkg carries the
// manager-specific identifier.
func NewUnit(name string, pm ports.PackageManager, pkg ports.Package) *Unit {
	return &Unit{name: name, manager: pm, pkg: pkg}
}

// Name returns the ledger name.
func (u *Unit) Name() string {
	return u.name
}

// Package returns the package passed to the manager.
func (u *Unit) Package() ports.Package {
	return u.pkg
}

// Probe asks the manager whether the package is installed.
func (u *Unit) Probe(ctx context.Context) (bool, error) {
	return u.manager.IsInstalled(ctx, u.pkg)
}

// Apply installs the package.
func (u *Unit) Apply(ctx context.Context) error {
	return u.manager.Install(ctx, u.pkg)
}

// RefreshUnit updates the manager's package index before the packages of
// one step. It is satisfied once every package it guards is installed.
type RefreshUnit struct {
	name    string
	manager ports.PackageManager
	guards  []ports.Package
}

// NewRefreshUnit creates a RefreshUnit labelled with the owning step. guards
// are the packages the refreshed index is needed for.
func NewRefreshUnit(step string, pm ports.PackageManager, guards ...ports.Package) *RefreshUnit {
	return &RefreshUnit{
		name:    fmt.Sprintf("%s package index (%s)", pm.Name(), step),
		manager: pm,
		guards:  guards,
	}
}

// Name returns the ledger name.
func (u *RefreshUnit) Name() string {
	return u.name
}

// Probe reports true when every guarded package is already installed. With
// no guards the index is always refreshed.
func (u *RefreshUnit) Probe(ctx context.Context) (bool, error) {
	if len(u.guards) == 0 {
		return false, nil
	}
	for _, pkg := range u.guards {
		installed, err := u.manager.IsInstalled(ctx, pkg)
		if err != nil || !installed {
			return false, err
		}
	}
	return true, nil
}

// Apply refreshes the index.
func (u *RefreshUnit) Apply(ctx context.Context) error {
	return u.manager.Refresh(ctx)
}

var (
	_ execution.WorkUnit = (*Unit)(nil)
	_ execution.WorkUnit = (*RefreshUnit)(nil)
)

package app

import (
	"github.com/felixgeelhaar/provision/internal/domain/config"
	"github.com/felixgeelhaar/provision/internal/domain/platform"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/apt"
	"github.com/felixgeelhaar/provision/internal/provider/brew"
	"github.com/felixgeelhaar/provision/internal/provider/chocolatey"
	"github.com/felixgeelhaar/provision/internal/provider/dnf"
	"github.com/felixgeelhaar/provision/internal/provider/winget"
)

// NewPackageManager builds the named manager. An empty name yields nil, which
// the manager check reports before any step runs. sudo prefixes privileged
// apt and dnf commands.
func NewPackageManager(name string, runner ports.CommandRunner, plat *platform.Platform, sudo bool) (ports.PackageManager, error) {
	switch name {
	case "":
		return nil, nil
	case "apt":
		return apt.New(runner, apt.WithSudo(sudo)), nil
	case "dnf":
		return dnf.New(runner, dnf.WithSudo(sudo)), nil
	case "brew":
		return brew.New(runner), nil
	case "winget":
		return winget.New(runner, plat), nil
	case "chocolatey":
		return chocolatey.New(runner, plat), nil
	default:
		return nil, config.NewUnknownManagerError(name)
	}
}

// ManagerName returns the selected manager: the --manager override, or the
// platform default.
func (p *Provisioner) ManagerName() string {
	if p.pm != nil {
		return p.pm.Name()
	}
	if p.manager != "" {
		return p.manager
	}
	return p.platform.DefaultManager()
}

func (p *Provisioner) packageManager() (ports.PackageManager, error) {
	if p.pm != nil {
		return p.pm, nil
	}
	return NewPackageManager(p.ManagerName(), p.runner, p.platform, p.euid() != 0)
}

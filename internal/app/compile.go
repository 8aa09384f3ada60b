package app

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/provision/internal/domain/config"
	"github.com/felixgeelhaar/provision/internal/domain/envcheck"
	"github.com/felixgeelhaar/provision/internal/domain/execution"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/files"
	"github.com/felixgeelhaar/provision/internal/provider/inifile"
	"github.com/felixgeelhaar/provision/internal/provider/packages"
	"github.com/felixgeelhaar/provision/internal/provider/shell"
)

// Compile turns a validated manifest into an execution plan: environment
// checks from the requirements and one step per manifest step. Backups made
// by file units go through guard.
//
// Entries excluded on the selected manager, and entries whose unit name was
// already declared, are dropped here with a warning.
func (p *Provisioner) Compile(ctx context.Context, m *config.Manifest, guard ports.BackupGuard) (execution.Plan, error) {
	compiled, err := p.compile(ctx, m, guard)
	if err != nil {
		return execution.Plan{}, err
	}

	plan := execution.Plan{Checks: compiled.checks}
	for _, s := range compiled.steps {
		plan.Steps = append(plan.Steps, execution.UnitStep(s.name, s.units...))
	}
	return plan, nil
}

// compiledManifest keeps the units of each step visible for previews.
type compiledManifest struct {
	pm     ports.PackageManager
	checks []execution.WorkUnit
	steps  []compiledStep
	// managed names the units that call the package manager.
	managed map[string]bool
}

type compiledStep struct {
	name  string
	units []execution.WorkUnit
}

func (p *Provisioner) compile(ctx context.Context, m *config.Manifest, guard ports.BackupGuard) (*compiledManifest, error) {
	pm, err := p.packageManager()
	if err != nil {
		return nil, err
	}
	if guard == nil {
		guard = ports.NoopBackupGuard{}
	}

	c := &compiler{
		Provisioner: p,
		pm:          pm,
		guard:       guard,
		declared:    make(map[string]string),
		managed:     make(map[string]bool),
	}

	out := &compiledManifest{pm: pm, checks: c.checks(m), managed: c.managed}
	for _, s := range m.Steps {
		units, err := c.step(ctx, s)
		if err != nil {
			return nil, err
		}
		out.steps = append(out.steps, compiledStep{name: s.Name, units: units})
	}
	return out, nil
}

// compiler holds the state of a single Compile call.
type compiler struct {
	*Provisioner
	pm    ports.PackageManager
	guard ports.BackupGuard
	// declared maps unit name to the step that declared it first.
	declared map[string]string
	managed  map[string]bool
}

func (c *compiler) checks(m *config.Manifest) []execution.WorkUnit {
	req := m.Requirements
	var checks []execution.WorkUnit

	if len(req.Platforms) > 0 || len(req.MinVersions) > 0 {
		checks = append(checks, envcheck.NewPlatformCheck(c.platform, req.Platforms, req.MinVersions))
	}
	if needsManager(m) {
		checks = append(checks, envcheck.NewManagerCheck(c.pm))
	}
	if req.Privileged {
		checks = append(checks, envcheck.NewPrivilegeCheck(c.platform, c.runner, envcheck.WithEUID(c.euid)))
	}

	host := req.NetworkHost
	if c.networkHost != "" {
		host = c.networkHost
	}
	if host != "" && !c.skipNetwork {
		var opts []envcheck.NetworkOption
		if c.dialer != nil {
			opts = append(opts, envcheck.WithDialer(c.dialer))
		}
		checks = append(checks, envcheck.NewNetworkCheck(host, opts...))
	}

	return checks
}

func needsManager(m *config.Manifest) bool {
	for _, s := range m.Steps {
		if s.Refresh || len(s.Packages) > 0 {
			return true
		}
	}
	return false
}

func (c *compiler) step(ctx context.Context, s config.Step) ([]execution.WorkUnit, error) {
	var units []execution.WorkUnit

	manager := ""
	if c.pm != nil {
		manager = c.pm.Name()
	}

	var resolved []resolvedPackage
	for _, pkg := range s.Packages {
		id, ok := pkg.NameFor(manager)
		if !ok {
			c.logger.Warn(ctx, fmt.Sprintf("Skipping %s: not available on %s", pkg.Name, manager),
				ports.F("step", s.Name))
			continue
		}
		resolved = append(resolved, resolvedPackage{
			decl: pkg,
			pkg:  ports.Package{Name: id, Version: pkg.Version, Cask: pkg.Cask},
		})
	}

	if s.Refresh && c.pm != nil {
		refresh := packages.NewRefreshUnit(s.Name, c.pm, refreshGuards(resolved)...)
		c.managed[refresh.Name()] = true
		c.add(ctx, s.Name, &units, refresh, nil)
	}

	for _, r := range resolved {
		unit := packages.NewUnit(r.decl.Name, c.pm, r.pkg)
		c.managed[unit.Name()] = true
		c.add(ctx, s.Name, &units, unit, r.decl.Confirm)
	}

	for _, f := range s.Files {
		mode, err := f.FileMode()
		if err != nil {
			return nil, fmt.Errorf("step %q: %s: %w", s.Name, f.Path, err)
		}
		opts := []files.Option{files.WithMode(mode)}
		if f.Block != "" {
			opts = append(opts, files.WithBlock(f.Block))
		}
		unit := files.NewUnit(c.expander.Expand(f.Path), f.Content, c.fs, c.guard, opts...)
		c.add(ctx, s.Name, &units, unit, f.Confirm)
	}

	for _, f := range s.INI {
		unit := inifile.NewUnit(c.expander.Expand(f.Path), f.Sections, c.fs, c.guard)
		c.add(ctx, s.Name, &units, unit, f.Confirm)
	}

	for _, cmd := range s.Commands {
		unit := shell.NewUnit(cmd.Name, cmd.Check, cmd.Run, c.runner)
		c.add(ctx, s.Name, &units, unit, cmd.Confirm)
	}

	return units, nil
}

type resolvedPackage struct {
	decl config.Package
	pkg  ports.Package
}

// refreshGuards picks the packages whose presence makes a refresh redundant:
// the mandatory ones, or every package when all of them ask first.
func refreshGuards(resolved []resolvedPackage) []ports.Package {
	var mandatory, all []ports.Package
	for _, r := range resolved {
		all = append(all, r.pkg)
		if r.decl.Confirm == nil {
			mandatory = append(mandatory, r.pkg)
		}
	}
	if len(mandatory) > 0 {
		return mandatory
	}
	return all
}

// add appends u unless its name was declared before, wrapping it in a
// confirmation gate when confirm is set.
func (c *compiler) add(ctx context.Context, step string, units *[]execution.WorkUnit, u execution.WorkUnit, confirm *config.Confirm) {
	name := u.Name()
	if first, dup := c.declared[name]; dup {
		c.logger.Warn(ctx, fmt.Sprintf("Skipping duplicate %s", name),
			ports.F("step", step), ports.F("first_declared_in", first))
		return
	}
	c.declared[name] = step

	if confirm != nil {
		u = execution.Optionalize(u, execution.Confirmation{
			Prompt:  confirm.PromptFor(name),
			Default: confirm.DefaultAnswer(),
		})
	}
	*units = append(*units, u)
}

package config

import (
	"fmt"
	"regexp"

	"github.com/felixgeelhaar/provision/internal/domain/platform"
	"github.com/felixgeelhaar/provision/internal/validation"
)

var blockNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// KnownManagers are the package manager names accepted in Package.Managers.
var KnownManagers = []string{"apt", "dnf", "brew", "winget", "chocolatey"}

func isKnownManager(name string) bool {
	for _, m := range KnownManagers {
		if m == name {
			return true
		}
	}
	return false
}

// ValidateManagerName rejects manager names outside KnownManagers.
func ValidateManagerName(name string) error {
	if !isKnownManager(name) {
		return NewUnknownManagerError(name)
	}
	return nil
}

// ValidatePackageID checks a package identifier with the rules of the
// manager that will receive it.
func ValidatePackageID(manager, id string) error {
	switch manager {
	case "winget":
		return validation.ValidateWingetID(id)
	case "chocolatey":
		return validation.ValidateChocoPackage(id)
	default:
		return validation.ValidatePackageName(id)
	}
}

// Validate checks the manifest and returns an *ErrorList describing every
// problem found, or nil.
func (m *Manifest) Validate() error {
	errs := NewErrorList()

	if m.Version != CurrentVersion {
		errs.AddValidation("version", fmt.Sprintf("unsupported version %d", m.Version),
			fmt.Sprintf("Set 'version: %d'.", CurrentVersion))
	}
	m.Requirements.validate(errs)

	if len(m.Steps) == 0 {
		errs.AddValidation("steps", "at least one step is required",
			"Declare steps in order; each step holds packages, files, ini or commands.")
	}

	seen := make(map[string]bool, len(m.Steps))
	for i, step := range m.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		if step.Name == "" {
			errs.AddValidation(field+".name", "step name is required", "")
		} else if seen[step.Name] {
			errs.AddValidation(field+".name", fmt.Sprintf("duplicate step name %q", step.Name), "Step names must be unique.")
		}
		seen[step.Name] = true
		if step.UnitCount() == 0 {
			errs.AddValidation(field, "step declares no work", "Add packages, files, ini or commands, or remove the step.")
		}
		step.validate(field, errs)
	}

	return errs.AsError()
}

func (r Requirements) validate(errs *ErrorList) {
	if r.NetworkHost != "" {
		if err := validation.ValidateHostPort(r.NetworkHost); err != nil {
			errs.AddValidation("requirements.network_host", err.Error(), "Use host:port, e.g. github.com:443.")
		}
	}
	for name, v := range r.MinVersions {
		if _, ok := platform.NormalizeVersion(v); !ok {
			errs.AddValidation("requirements.min_versions."+name,
				fmt.Sprintf("invalid version %q", v), "Use dotted numbers such as 22.04 or 13.")
		}
	}
}

func (s Step) validate(field string, errs *ErrorList) {
	if s.Refresh && len(s.Packages) == 0 {
		errs.AddValidation(field+".refresh", "refresh without packages",
			"Declare the packages that need the fresh index in the same step.")
	}
	for i, p := range s.Packages {
		pf := fmt.Sprintf("%s.packages[%d]", field, i)
		if err := validation.ValidatePackageName(p.Name); err != nil {
			errs.AddValidation(pf+".name", err.Error(), "")
		}
		if err := validation.ValidateVersion(p.Version); err != nil {
			errs.AddValidation(pf+".version", err.Error(), "")
		}
		for mgr, id := range p.Managers {
			if !isKnownManager(mgr) {
				errs.AddValidation(pf+".managers."+mgr, "unknown package manager",
					fmt.Sprintf("Use one of %v.", KnownManagers))
				continue
			}
			if id == ExcludedMarker {
				continue
			}
			if err := ValidatePackageID(mgr, id); err != nil {
				errs.AddValidation(pf+".managers."+mgr, err.Error(), "")
			}
		}
	}
	for i, f := range s.Files {
		ff := fmt.Sprintf("%s.files[%d]", field, i)
		if err := validation.ValidatePath(f.Path); err != nil {
			errs.AddValidation(ff+".path", err.Error(), "")
		}
		if _, err := f.FileMode(); err != nil {
			errs.AddValidation(ff+".mode", err.Error(), "Use an octal string such as \"0644\".")
		}
		if f.Block != "" && !blockNameRegex.MatchString(f.Block) {
			errs.AddValidation(ff+".block", fmt.Sprintf("invalid block name %q", f.Block), "Use letters, digits, '-' and '_'.")
		}
	}
	for i, f := range s.INI {
		inf := fmt.Sprintf("%s.ini[%d]", field, i)
		if err := validation.ValidatePath(f.Path); err != nil {
			errs.AddValidation(inf+".path", err.Error(), "")
		}
		if len(f.Sections) == 0 {
			errs.AddValidation(inf+".sections", "no keys declared", "")
		}
		for section, keys := range f.Sections {
			for k, v := range keys {
				kf := fmt.Sprintf("%s.sections.%s.%s", inf, section, k)
				if err := validation.ValidateINIKey(k); err != nil {
					errs.AddValidation(kf, err.Error(), "")
				}
				if err := validation.ValidateINIValue(v); err != nil {
					errs.AddValidation(kf, err.Error(), "")
				}
			}
		}
	}
	for i, c := range s.Commands {
		cf := fmt.Sprintf("%s.commands[%d]", field, i)
		if c.Name == "" {
			errs.AddValidation(cf+".name", "command name is required", "")
		}
		if c.Check == "" {
			errs.AddValidation(cf+".check", "check command is required",
				"Add a command that exits 0 when the work is already done.")
		}
		if c.Run == "" {
			errs.AddValidation(cf+".run", "run command is required", "")
		}
	}
}

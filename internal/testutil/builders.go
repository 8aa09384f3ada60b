package testutil

import (
	"github.com/felixgeelhaar/provision/internal/domain/config"
)

// ManifestBuilder builds manifests for tests.
type ManifestBuilder struct {
	m config.Manifest
}

// NewManifestBuilder starts a version-1 manifest with no steps.
func NewManifestBuilder() *ManifestBuilder {
	return &ManifestBuilder{m: config.Manifest{Version: config.CurrentVersion, Name: "test"}}
}

// WithNetworkHost sets requirements.network_host.
func (b *ManifestBuilder) WithNetworkHost(hostPort string) *ManifestBuilder {
	b.m.Requirements.NetworkHost = hostPort
	return b
}

// WithPlatforms sets requirements.platforms.
func (b *ManifestBuilder) WithPlatforms(names ...string) *ManifestBuilder {
	b.m.Requirements.Platforms = names
	return b
}

// WithMinVersion adds a minimum version requirement.
func (b *ManifestBuilder) WithMinVersion(name, version string) *ManifestBuilder {
	if b.m.Requirements.MinVersions == nil {
		b.m.Requirements.MinVersions = make(map[string]string)
	}
	b.m.Requirements.MinVersions[name] = version
	return b
}

// Privileged sets requirements.privileged.
func (b *ManifestBuilder) Privileged() *ManifestBuilder {
	b.m.Requirements.Privileged = true
	return b
}

// WithStep appends a step.
func (b *ManifestBuilder) WithStep(step *StepBuilder) *ManifestBuilder {
	b.m.Steps = append(b.m.Steps, step.Build())
	return b
}

// Build returns the manifest.
func (b *ManifestBuilder) Build() *config.Manifest {
	m := b.m
	return &m
}

// StepBuilder builds a manifest step.
type StepBuilder struct {
	s config.Step
}

// NewStep starts a step named name.
func NewStep(name string) *StepBuilder {
	return &StepBuilder{s: config.Step{Name: name}}
}

// Refresh marks the step to refresh the package index first.
func (b *StepBuilder) Refresh() *StepBuilder {
	b.s.Refresh = true
	return b
}

// WithPackages adds mandatory packages.
func (b *StepBuilder) WithPackages(names ...string) *StepBuilder {
	for _, n := range names {
		b.s.Packages = append(b.s.Packages, config.Package{Name: n})
	}
	return b
}

// WithPackage adds a fully specified package.
func (b *StepBuilder) WithPackage(p config.Package) *StepBuilder {
	b.s.Packages = append(b.s.Packages, p)
	return b
}

// WithOptionalPackage adds a package guarded by a confirmation.
func (b *StepBuilder) WithOptionalPackage(name, prompt string, def bool) *StepBuilder {
	b.s.Packages = append(b.s.Packages, config.Package{
		Name:    name,
		Confirm: &config.Confirm{Prompt: prompt, Default: &def},
	})
	return b
}

// WithFile adds a dotfile.
func (b *StepBuilder) WithFile(path, content string) *StepBuilder {
	b.s.Files = append(b.s.Files, config.File{Path: path, Content: content})
	return b
}

// WithINI adds INI keys for one section.
func (b *StepBuilder) WithINI(path, section string, keys map[string]string) *StepBuilder {
	b.s.INI = append(b.s.INI, config.INIFile{
		Path:     path,
		Sections: map[string]map[string]string{section: keys},
	})
	return b
}

// WithCommand adds a scripted unit.
func (b *StepBuilder) WithCommand(name, check, run string) *StepBuilder {
	b.s.Commands = append(b.s.Commands, config.Command{Name: name, Check: check, Run: run})
	return b
}

// Build returns the step.
func (b *StepBuilder) Build() config.Step {
	return b.s
}

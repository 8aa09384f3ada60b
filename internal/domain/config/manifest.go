// Package config loads and validates the provisioning manifest: the static,
// ordered declaration of steps and the work units inside them.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the manifest schema version this build understands.
const CurrentVersion = 1

// Format is a manifest encoding.
type Format string

const (
	// FormatYAML is the default manifest encoding.
	FormatYAML Format = "yaml"
	// FormatTOML is accepted for .toml manifests.
	FormatTOML Format = "toml"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}

// Manifest is the root of a provisioning manifest.
type Manifest struct {
	Version      int          `yaml:"version" toml:"version"`
	Name         string       `yaml:"name,omitempty" toml:"name,omitempty"`
	Requirements Requirements `yaml:"requirements,omitempty" toml:"requirements,omitempty"`
	Steps        []Step       `yaml:"steps" toml:"steps"`
}

// Requirements are the global preconditions checked once before any step.
type Requirements struct {
	// Platforms lists accepted OS names or Linux distribution ids.
	// Empty accepts every platform.
	Platforms []string `yaml:"platforms,omitempty" toml:"platforms,omitempty"`
	// MinVersions maps an OS name or distribution id to its minimum version.
	MinVersions map[string]string `yaml:"min_versions,omitempty" toml:"min_versions,omitempty"`
	// NetworkHost is dialed (host:port) to confirm connectivity.
	NetworkHost string `yaml:"network_host,omitempty" toml:"network_host,omitempty"`
	// Privileged requires root or passwordless-capable sudo on Unix.
	Privileged bool `yaml:"privileged,omitempty" toml:"privileged,omitempty"`
}

// Step is one top-level progress step containing any number of work units.
type Step struct {
	Name string `yaml:"name" toml:"name"`
	// Refresh updates the package index before the step's packages unless
	// they are all installed already.
	Refresh  bool      `yaml:"refresh,omitempty" toml:"refresh,omitempty"`
	Packages []Package `yaml:"packages,omitempty" toml:"packages,omitempty"`
	Files    []File    `yaml:"files,omitempty" toml:"files,omitempty"`
	INI      []INIFile `yaml:"ini,omitempty" toml:"ini,omitempty"`
	Commands []Command `yaml:"commands,omitempty" toml:"commands,omitempty"`
}

// UnitCount returns the number of work units the step declares.
func (s Step) UnitCount() int {
	n := len(s.Packages) + len(s.Files) + len(s.INI) + len(s.Commands)
	if s.Refresh {
		n++
	}
	return n
}

// Confirm makes a work unit optional: it runs only after a yes answer.
type Confirm struct {
	Prompt  string `yaml:"prompt,omitempty" toml:"prompt,omitempty"`
	Default *bool  `yaml:"default,omitempty" toml:"default,omitempty"`
}

// DefaultAnswer is the answer taken on an empty reply. Defaults to yes.
func (c *Confirm) DefaultAnswer() bool {
	if c == nil || c.Default == nil {
		return true
	}
	return *c.Default
}

// PromptFor returns the prompt text, falling back to "Install <name>?".
func (c *Confirm) PromptFor(name string) string {
	if c != nil && c.Prompt != "" {
		return c.Prompt
	}
	return fmt.Sprintf("Install %s?", name)
}

// Package is a package installed through the native package manager.
type Package struct {
	Name    string `yaml:"name" toml:"name"`
	Version string `yaml:"version,omitempty" toml:"version,omitempty"`
	// Cask installs a Homebrew cask instead of a formula.
	Cask bool `yaml:"cask,omitempty" toml:"cask,omitempty"`
	// Managers overrides the package name per manager. "-" excludes the
	// package for that manager.
	Managers map[string]string `yaml:"managers,omitempty" toml:"managers,omitempty"`
	Confirm  *Confirm          `yaml:"confirm,omitempty" toml:"confirm,omitempty"`
}

// ExcludedMarker in Package.Managers skips a package on that manager.
const ExcludedMarker = "-"

// NameFor resolves the package identifier for manager. ok is false when the
// package is excluded for that manager.
func (p Package) NameFor(manager string) (name string, ok bool) {
	if override, found := p.Managers[manager]; found {
		if override == ExcludedMarker {
			return "", false
		}
		return override, true
	}
	return p.Name, true
}

// File is a dotfile written with fixed content.
type File struct {
	Path    string `yaml:"path" toml:"path"`
	Content string `yaml:"content" toml:"content"`
	Mode    string `yaml:"mode,omitempty" toml:"mode,omitempty"`
	// Block, when set, names a managed block inside Path. Only the text
	// between the block markers is owned; the rest of the file is kept.
	Block   string   `yaml:"block,omitempty" toml:"block,omitempty"`
	Confirm *Confirm `yaml:"confirm,omitempty" toml:"confirm,omitempty"`
}

// DefaultFileMode is used when a file declares no mode.
const DefaultFileMode os.FileMode = 0o644

// FileMode parses the octal mode string.
func (f File) FileMode() (os.FileMode, error) {
	if f.Mode == "" {
		return DefaultFileMode, nil
	}
	v, err := strconv.ParseUint(f.Mode, 8, 32)
	if err != nil || v > 0o777 {
		return 0, fmt.Errorf("invalid file mode %q", f.Mode)
	}
	return os.FileMode(v), nil
}

// INIFile sets keys inside an INI-style config file such as ~/.gitconfig.
type INIFile struct {
	Path string `yaml:"path" toml:"path"`
	// Sections maps section name to key/value pairs. Use "" for the
	// top-level section.
	Sections map[string]map[string]string `yaml:"sections" toml:"sections"`
	Confirm  *Confirm                     `yaml:"confirm,omitempty" toml:"confirm,omitempty"`
}

// Command is a scripted unit: Check decides whether Run is needed.
type Command struct {
	Name string `yaml:"name" toml:"name"`
	// Check exits 0 when the desired state already holds.
	Check   string   `yaml:"check,omitempty" toml:"check,omitempty"`
	Run     string   `yaml:"run" toml:"run"`
	Confirm *Confirm `yaml:"confirm,omitempty" toml:"confirm,omitempty"`
}

// ParseManifest decodes a manifest in the given format. It does not validate.
func ParseManifest(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown manifest format %q", format)
	}
	return &m, nil
}

// TotalUnits returns the number of work units across all steps.
func (m *Manifest) TotalUnits() int {
	n := 0
	for _, s := range m.Steps {
		n += s.UnitCount()
	}
	return n
}

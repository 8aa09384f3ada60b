// Package inifile provides the work unit that sets keys in INI-style dotfiles
// such as ~/.gitconfig, leaving every other line of the file alone.
package inifile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/provision/internal/domain/execution"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/validation"
)

// DefaultMode applies when the file does not exist yet.
const DefaultMode os.FileMode = 0o644

// Inline comments are kept as part of the value so that values holding
// '#' or ';' (URLs, aliases) are written back unquoted.
var loadOptions = ini.LoadOptions{
	AllowBooleanKeys:    true,
	IgnoreInlineComment: true,
}

// Unit ensures section.key = value entries in an INI file.
type Unit struct {
	path     string
	sections map[string]map[string]string
	fs       ports.FileSystem
	guard    ports.BackupGuard
}

// NewUnit creates a Unit for path, which may start with ~/.
func NewUnit(path string, sections map[string]map[string]string, fsys ports.FileSystem, guard ports.BackupGuard) *Unit {
	if guard == nil {
		guard = ports.NoopBackupGuard{}
	}
	return &Unit{path: path, sections: sections, fs: fsys, guard: guard}
}

// Name returns the path with the managed section names.
func (u *Unit) Name() string {
	return fmt.Sprintf("%s [%s]", u.path, strings.Join(sortedKeys(u.sections), ", "))
}

// Probe reports whether every declared key already has its value.
func (u *Unit) Probe(_ context.Context) (bool, error) {
	target := ports.ExpandPath(u.path)
	if !u.fs.Exists(target) {
		return false, nil
	}

	cfg, err := u.load(target)
	if err != nil {
		return false, err
	}
	for _, name := range sortedKeys(u.sections) {
		sec, err := cfg.GetSection(name)
		if err != nil {
			return false, nil
		}
		for key, want := range u.sections[name] {
			if !sec.HasKey(key) || sec.Key(key).String() != want {
				return false, nil
			}
		}
	}
	return true, nil
}

// Apply backs up the file and writes the merged configuration.
func (u *Unit) Apply(_ context.Context) error {
	if err := validation.ValidatePath(u.path); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if err := u.validate(); err != nil {
		return err
	}
	target := ports.ExpandPath(u.path)

	cfg := ini.Empty(loadOptions)
	perm := DefaultMode
	if u.fs.Exists(target) {
		loaded, err := u.load(target)
		if err != nil {
			return err
		}
		cfg = loaded
		if info, err := u.fs.GetFileInfo(target); err == nil {
			perm = info.Mode.Perm()
		}
	}

	for _, name := range sortedKeys(u.sections) {
		sec := cfg.Section(name)
		for _, key := range sortedKeys(u.sections[name]) {
			sec.Key(key).SetValue(u.sections[name][key])
		}
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return fmt.Errorf("render %s: %w", u.path, err)
	}

	if _, err := u.guard.Backup(target); err != nil {
		return execution.Fatal(fmt.Errorf("backup %s: %w", u.path, err))
	}
	if err := u.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", u.path, err)
	}
	if err := u.fs.WriteFile(target, buf.Bytes(), perm); err != nil {
		return fmt.Errorf("write %s: %w", u.path, err)
	}
	return nil
}

func (u *Unit) load(target string) (*ini.File, error) {
	data, err := u.fs.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ini.Empty(loadOptions), nil
		}
		return nil, fmt.Errorf("read %s: %w", u.path, err)
	}
	cfg, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u.path, err)
	}
	return cfg, nil
}

func (u *Unit) validate() error {
	for name, keys := range u.sections {
		for key, value := range keys {
			if err := validation.ValidateINIKey(key); err != nil {
				return fmt.Errorf("%s.%s: %w", name, key, err)
			}
			if err := validation.ValidateINIValue(value); err != nil {
				return fmt.Errorf("%s.%s: %w", name, key, err)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ execution.WorkUnit = (*Unit)(nil)

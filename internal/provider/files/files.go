// Package files provides the work unit that writes dotfiles, either whole or
// as a managed block inside an existing file.
package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/provision/internal/domain/execution"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/validation"
)

// DefaultMode applies to new files without an explicit mode.
const DefaultMode os.FileMode = 0o644

// Unit ensures a file holds the declared content. Existing files are handed
// to the backup guard before they are overwritten.
type Unit struct {
	path    string
	content string
	mode    os.FileMode
	block   string
	fs      ports.FileSystem
	guard   ports.BackupGuard
}

// Option configures a Unit.
type Option func(*Unit)

// WithMode sets the permission bits of a whole-file write.
func WithMode(mode os.FileMode) Option {
	return func(u *Unit) {
		u.mode = mode
	}
}

// WithBlock limits the unit to the named managed block inside the file.
func WithBlock(name string) Option {
	return func(u *Unit) {
		u.block = name
	}
}

// NewUnit creates a Unit for path, which may start with ~/.
func NewUnit(path, content string, fsys ports.FileSystem, guard ports.BackupGuard, opts ...Option) *Unit {
	if guard == nil {
		guard = ports.NoopBackupGuard{}
	}
	u := &Unit{
		path:    path,
		content: content,
		mode:    DefaultMode,
		fs:      fsys,
		guard:   guard,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.block != "" {
		u.content = normalizeBlock(u.content)
	}
	return u
}

// Name returns the path, with the block name for managed blocks.
func (u *Unit) Name() string {
	if u.block != "" {
		return fmt.Sprintf("%s (%s block)", u.path, u.block)
	}
	return u.path
}

// Probe reports whether the file already matches.
func (u *Unit) Probe(_ context.Context) (bool, error) {
	target := ports.ExpandPath(u.path)
	if !u.fs.Exists(target) {
		return false, nil
	}

	if u.block != "" {
		data, err := u.fs.ReadFile(target)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", u.path, err)
		}
		return ReadManagedBlock(string(data), u.block) == u.content, nil
	}

	current, err := u.fs.FileHash(target)
	if err != nil {
		return false, fmt.Errorf("hash %s: %w", u.path, err)
	}
	if current != contentHash(u.content) {
		return false, nil
	}
	info, err := u.fs.GetFileInfo(target)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", u.path, err)
	}
	return info.Mode.Perm() == u.mode.Perm(), nil
}

// Apply backs up the current file and writes the new content. A failed
// backup is fatal and leaves the file untouched.
func (u *Unit) Apply(_ context.Context) error {
	if err := validation.ValidatePath(u.path); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	target := ports.ExpandPath(u.path)

	data, perm, err := u.render(target)
	if err != nil {
		return err
	}

	if _, err := u.guard.Backup(target); err != nil {
		return execution.Fatal(fmt.Errorf("backup %s: %w", u.path, err))
	}
	if err := u.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", u.path, err)
	}
	if err := u.fs.WriteFile(target, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", u.path, err)
	}
	return nil
}

// render returns the bytes to write and their permission bits. Managed
// blocks keep the rest of the file and its mode.
func (u *Unit) render(target string) ([]byte, os.FileMode, error) {
	if u.block == "" {
		return []byte(u.content), u.mode, nil
	}

	existing, err := u.fs.ReadFile(target)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("read %s: %w", u.path, err)
	}
	perm := u.mode
	if err == nil {
		if info, statErr := u.fs.GetFileInfo(target); statErr == nil {
			perm = info.Mode.Perm()
		}
	}
	return []byte(WriteManagedBlock(string(existing), u.block, u.content)), perm, nil
}

func contentHash(content string) string {
	return ports.ContentHash([]byte(content))
}

var _ execution.WorkUnit = (*Unit)(nil)

// Package backup copies pre-existing files aside before they are
// overwritten. Each run gets its own timestamped backup directory.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/provision/internal/ports"
)

// TimestampFormat is used for backup directory and file names.
const TimestampFormat = "20060102-150405"

// maxCollisions bounds the numeric suffix search for a free backup name.
const maxCollisions = 1000

// Record describes one backup made during the run.
type Record struct {
	Source string
	Backup string
	At     time.Time
}

// Guard implements ports.BackupGuard for one run.
// It is owned by the goroutine driving the run.
type Guard struct {
	fs      ports.FileSystem
	dir     string
	now     func() time.Time
	created bool
	records []Record
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces time.Now for backup file names.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// RunDir returns the per-run backup directory under root.
func RunDir(root string, start time.Time) string {
	return filepath.Join(root, start.Format(TimestampFormat))
}

// NewGuard creates a guard writing into dir. The directory is created on the
// first backup, never before.
func NewGuard(fsys ports.FileSystem, dir string, opts ...Option) *Guard {
	g := &Guard{
		fs:  fsys,
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dir returns the backup directory path.
func (g *Guard) Dir() string {
	return g.dir
}

// Used reports whether at least one backup was written.
func (g *Guard) Used() bool {
	return len(g.records) > 0
}

// Records returns the backups made so far, in order.
func (g *Guard) Records() []Record {
	out := make([]Record, len(g.records))
	copy(out, g.records)
	return out
}

// Backup copies path into the backup directory as
// <basename>.<timestamp>.bak and returns the copy's path. A missing path
// returns ("", nil) without touching the backup directory.
func (g *Guard) Backup(path string) (string, error) {
	src := ports.ExpandPath(path)
	if !g.fs.Exists(src) {
		return "", nil
	}
	if g.fs.IsDir(src) {
		return "", fmt.Errorf("backup %s: is a directory", path)
	}

	if !g.created {
		if err := g.fs.MkdirAll(g.dir, 0o700); err != nil {
			return "", fmt.Errorf("create backup directory: %w", err)
		}
		g.created = true
	}

	at := g.now()
	base := filepath.Base(src)
	stamp := at.Format(TimestampFormat)

	for i := 0; i < maxCollisions; i++ {
		name := fmt.Sprintf("%s.%s.bak", base, stamp)
		if i > 0 {
			name = fmt.Sprintf("%s.%s.%d.bak", base, stamp, i)
		}
		dest := filepath.Join(g.dir, name)

		err := g.fs.CopyFile(src, dest)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("backup %s: %w", path, err)
		}

		g.records = append(g.records, Record{Source: src, Backup: dest, At: at})
		return dest, nil
	}

	return "", fmt.Errorf("backup %s: no free name in %s", path, g.dir)
}

var _ ports.BackupGuard = (*Guard)(nil)

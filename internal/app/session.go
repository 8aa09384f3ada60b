package app

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/provision/internal/domain/backup"
)

// StateDirName is the directory under $HOME holding logs, backups and the lock.
const StateDirName = ".provision"

// Paths locates the state provision keeps between runs.
type Paths struct {
	LogDir     string
	BackupRoot string
	LockFile   string
}

// DefaultPaths returns the layout under home/.provision.
func DefaultPaths(home string) Paths {
	root := filepath.Join(home, StateDirName)
	return Paths{
		LogDir:     filepath.Join(root, "logs"),
		BackupRoot: filepath.Join(root, "backups"),
		LockFile:   filepath.Join(root, "provision.lock"),
	}
}

// Session identifies one provisioning run.
type Session struct {
	ID        string
	Start     time.Time
	LogPath   string
	BackupDir string
}

// NewSession names the log file and backup directory for a run starting at
// start. Nothing is created on disk.
func NewSession(paths Paths, start time.Time) Session {
	ts := start.Format(backup.TimestampFormat)
	return Session{
		ID:        uuid.New().String(),
		Start:     start,
		LogPath:   filepath.Join(paths.LogDir, "provision-"+ts+".log"),
		BackupDir: backup.RunDir(paths.BackupRoot, start),
	}
}

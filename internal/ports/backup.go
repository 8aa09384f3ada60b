package ports

// BackupGuard copies a file aside before it is overwritten.
type BackupGuard interface {
	// Backup copies path into the run's backup directory and returns the
	// backup location. A missing path is not an error: nothing is copied and
	// the returned location is empty.
	Backup(path string) (string, error)
}

// NoopBackupGuard never copies anything.
// Use this when a caller writes only to fresh paths.
type NoopBackupGuard struct{}

// Backup does nothing.
func (NoopBackupGuard) Backup(_ string) (string, error) {
	return "", nil
}

// Ensure NoopBackupGuard implements BackupGuard.
var _ BackupGuard = NoopBackupGuard{}

// Package lockfile provides the file-lock backed ports.SessionLock that keeps
// provisioning runs from overlapping on one machine.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/felixgeelhaar/provision/internal/ports"
)

// DefaultRetryDelay is the polling interval while waiting for the lock.
const DefaultRetryDelay = 100 * time.Millisecond

// SessionLock is an exclusive advisory lock on a file.
type SessionLock struct {
	path string
	wait time.Duration
}

// Option configures a SessionLock.
type Option func(*SessionLock)

// WithWait makes Acquire poll for up to d before giving up.
func WithWait(d time.Duration) Option {
	return func(l *SessionLock) {
		l.wait = d
	}
}

// New creates a SessionLock on path. The file and its parent directory are
// created on Acquire.
func New(path string, opts ...Option) *SessionLock {
	l := &SessionLock{path: path}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the lock file location.
func (l *SessionLock) Path() string {
	return l.path
}

// Acquire takes the lock. It returns ports.ErrLocked when another process
// holds it.
func (l *SessionLock) Acquire(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(l.path)
	locked, err := l.tryLock(ctx, fl)
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock held: %s)", ports.ErrLocked, l.path)
	}
	return fl.Unlock, nil
}

func (l *SessionLock) tryLock(ctx context.Context, fl *flock.Flock) (bool, error) {
	if l.wait <= 0 {
		return fl.TryLock()
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	locked, err := fl.TryLockContext(waitCtx, DefaultRetryDelay)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return false, nil
	}
	return locked, err
}

var _ ports.SessionLock = (*SessionLock)(nil)

package ports

import (
	"context"
	"errors"
)

// ErrLocked is returned when another provisioning session holds the lock.
var ErrLocked = errors.New("another provisioning session is already running")

// SessionLock ensures one provisioning session per machine.
type SessionLock interface {
	// Acquire takes the lock or fails with ErrLocked. The returned release
	// function must be called when the run ends.
	Acquire(ctx context.Context) (release func() error, err error)
}

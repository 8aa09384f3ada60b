package execution

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/provision/internal/domain/ledger"
)

// ErrDeclined is returned when the user declines the begin gate.
var ErrDeclined = errors.New("installation declined")

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks an apply error as unexpected: instead of recording the unit as
// Failed, the run aborts.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err was marked with Fatal.
func IsFatal(err error) bool {
	var f *fatalError
	return errors.As(err, &f)
}

// PanicError is a recovered panic from a step.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// AbortError is returned by Runner.Run when the run stops before the final
// summary.
type AbortError struct {
	// Phase is the lifecycle phase the run was in.
	Phase Phase
	// Step names the step that aborted, empty outside provisioning.
	Step string
	// Cause is the error that stopped the run.
	Cause error
	// Summary is the partial ledger at the time of the abort.
	Summary ledger.Summary
	// LogPath is the session log file, when one was configured.
	LogPath string
}

func (e *AbortError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("provisioning aborted in step %q: %v", e.Step, e.Cause)
	}
	return fmt.Sprintf("provisioning aborted during %s: %v", e.Phase, e.Cause)
}

func (e *AbortError) Unwrap() error {
	return e.Cause
}

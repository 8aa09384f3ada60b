// Package shell provides the work unit that runs a command line, guarded by
// an optional check command.
package shell

import (
	"context"
	"runtime"

	"github.com/felixgeelhaar/provision/internal/domain/execution"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/commandutil"
)

// Unit runs Run unless Check exits 0. An empty check always runs.
type Unit struct {
	name   string
	check  string
	run    string
	runner ports.CommandRunner
	shell  []string
}

// Option configures a Unit.
type Option func(*Unit)

// WithShell replaces the interpreter, e.g. WithShell("bash", "-c").
func WithShell(command string, args ...string) Option {
	return func(u *Unit) {
		u.shell = append([]string{command}, args...)
	}
}

// DefaultShell returns "sh -c", or "cmd /C" on Windows.
func DefaultShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"sh", "-c"}
}

// NewUnit creates a shell Unit.
func NewUnit(name, check, run string, runner ports.CommandRunner, opts ...Option) *Unit {
	u := &Unit{
		name:   name,
		check:  check,
		run:    run,
		runner: runner,
		shell:  DefaultShell(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Name returns the unit name.
func (u *Unit) Name() string {
	return u.name
}

// Probe runs the check command. A missing interpreter counts as unsatisfied.
func (u *Unit) Probe(ctx context.Context) (bool, error) {
	if u.check == "" {
		return false, nil
	}
	return commandutil.Succeeds(ctx, u.runner, u.shell[0], u.args(u.check)...)
}

// Apply runs the command. A non-zero exit is an error.
func (u *Unit) Apply(ctx context.Context) error {
	return commandutil.Exec(ctx, u.runner, u.shell[0], u.args(u.run)...)
}

func (u *Unit) args(script string) []string {
	args := make([]string, 0, len(u.shell))
	args = append(args, u.shell[1:]...)
	return append(args, script)
}

var _ execution.WorkUnit = (*Unit)(nil)

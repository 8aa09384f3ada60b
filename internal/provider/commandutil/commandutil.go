// Package commandutil holds helpers shared by providers that shell out.
package commandutil

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/felixgeelhaar/provision/internal/ports"
)

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// Succeeds runs a probe command and reports whether it exited with code 0.
// A missing executable is a negative answer, not an error; any other
// failure to start the command is returned.
func Succeeds(ctx context.Context, runner ports.CommandRunner, command string, args ...string) (bool, error) {
	result, err := runner.Run(ctx, command, args...)
	if err != nil {
		if IsCommandNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return result.Success(), nil
}

// Exec runs a mutating command and folds a non-zero exit into the error.
func Exec(ctx context.Context, runner ports.CommandRunner, command string, args ...string) error {
	result, err := runner.Run(ctx, command, args...)
	if err != nil {
		return err
	}
	return result.Err(command)
}

// Sudo prefixes command with sudo when privileged is true.
func Sudo(privileged bool, command string, args ...string) (string, []string) {
	if !privileged {
		return command, args
	}
	return "sudo", append([]string{command}, args...)
}

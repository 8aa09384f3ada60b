// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"fmt"
	"strings"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Err returns nil for a successful result, otherwise an error naming the
// command, its exit code and the first line of diagnostic output.
func (r CommandResult) Err(command string) error {
	if r.Success() {
		return nil
	}
	detail := firstLine(r.Stderr)
	if detail == "" {
		detail = firstLine(r.Stdout)
	}
	if detail == "" {
		return fmt.Errorf("%s exited with code %d", command, r.ExitCode)
	}
	return fmt.Errorf("%s exited with code %d: %s", command, r.ExitCode, detail)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
}

// String renders the call the way a shell would show it.
func (c CommandCall) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// CommandRunner executes shell commands.
// A non-zero exit is reported through CommandResult; the error return is
// reserved for commands that could not be started at all.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}

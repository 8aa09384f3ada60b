// Package command provides the process-backed ports.CommandRunner used by
// package managers, probes and environment checks.
package command

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/provision/internal/ports"
)

// RealRunner executes actual commands.
type RealRunner struct {
	env    []string
	stream io.Writer
	logger ports.Logger
}

// Option configures a RealRunner.
type Option func(*RealRunner)

// WithEnv appends KEY=VALUE pairs to the inherited environment of every
// command, e.g. DEBIAN_FRONTEND=noninteractive for apt.
func WithEnv(env ...string) Option {
	return func(r *RealRunner) {
		r.env = append(r.env, env...)
	}
}

// WithStream copies command output to w as it is produced, in addition to
// capturing it in the result. Used for verbose runs.
func WithStream(w io.Writer) Option {
	return func(r *RealRunner) {
		r.stream = w
	}
}

// WithLogger logs every invocation at debug level.
func WithLogger(logger ports.Logger) Option {
	return func(r *RealRunner) {
		r.logger = logger
	}
}

// NewRealRunner creates a new RealRunner.
func NewRealRunner(opts ...Option) *RealRunner {
	r := &RealRunner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a command and returns the result.
// A non-zero exit status is reported in the result, not as an error.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	if r.logger != nil {
		r.logger.Debug(ctx, "exec", ports.F("cmd", ports.CommandCall{Command: command, Args: args}.String()))
	}

	cmd := exec.CommandContext(ctx, command, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	var stdout, stderr strings.Builder
	if r.stream != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.stream)
		cmd.Stderr = io.MultiWriter(&stderr, r.stream)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		// A cancelled context kills the process; report the cancellation
		// rather than the signal exit status.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// Ensure RealRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*RealRunner)(nil)

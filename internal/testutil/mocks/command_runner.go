// Package mocks provides test doubles for the ports interfaces.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/provision/internal/ports"
)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
//
// Results registered for the same command line are returned in order; the
// last one repeats once the queue is drained.
type CommandRunner struct {
	mu      sync.Mutex
	results map[string][]ports.CommandResult
	errors  map[string]error
	calls   []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results: make(map[string][]ports.CommandResult),
		errors:  make(map[string]error),
		calls:   make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.AddResults(command, args, result)
}

// AddResults queues several results for the same command line.
func (m *CommandRunner) AddResults(command string, args []string, results ...ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := buildKey(command, args)
	m.results[key] = append(m.results[key], results...)
}

// AddError registers an expected command that should fail to start.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, ports.CommandCall{Command: command, Args: args})
	key := buildKey(command, args)

	if err, ok := m.errors[key]; ok {
		return ports.CommandResult{}, err
	}

	queue := m.results[key]
	switch len(queue) {
	case 0:
		return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
	case 1:
		return queue[0], nil
	default:
		m.results[key] = queue[1:]
		return queue[0], nil
	}
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how often the exact command line was run.
func (m *CommandRunner) CallCount(command string, args ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := buildKey(command, args)
	n := 0
	for _, c := range m.calls {
		if buildKey(c.Command, c.Args) == key {
			n++
		}
	}
	return n
}

// Reset clears all registered results, errors, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string][]ports.CommandResult)
	m.errors = make(map[string]error)
	m.calls = make([]ports.CommandCall, 0)
}

func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

var _ ports.CommandRunner = (*CommandRunner)(nil)

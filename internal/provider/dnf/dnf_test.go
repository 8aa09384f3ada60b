package dnf

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/testutil/mocks"
)

func rpmQuery(name string) []string {
	return []string{"-q", "--queryformat", "%{VERSION}", name}
}

func TestManager_IsInstalled(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("rpm", rpmQuery("git"), ports.CommandResult{Stdout: "2.43.0"})
	runner.AddResult("rpm", rpmQuery("fd-find"), ports.CommandResult{ExitCode: 1, Stdout: "package fd-find is not installed"})
	runner.AddError("rpm", rpmQuery("jq"), exec.ErrNotFound)
	m := New(runner)
	ctx := context.Background()

	ok, err := m.IsInstalled(ctx, ports.Package{Name: "git"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.IsInstalled(ctx, ports.Package{Name: "git", Version: "2.43.0"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.IsInstalled(ctx, ports.Package{Name: "git", Version: "2.44.0"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.IsInstalled(ctx, ports.Package{Name: "fd-find"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.IsInstalled(ctx, ports.Package{Name: "jq"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_InstallAndRefresh(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("sudo", []string{"dnf", "install", "-y", "-q", "ripgrep"}, ports.CommandResult{})
	runner.AddResult("sudo", []string{"dnf", "install", "-y", "-q", "git-2.43.0"}, ports.CommandResult{})
	runner.AddResult("sudo", []string{"dnf", "makecache", "-q"}, ports.CommandResult{})
	m := New(runner)
	ctx := context.Background()

	require.NoError(t, m.Install(ctx, ports.Package{Name: "ripgrep"}))
	require.NoError(t, m.Install(ctx, ports.Package{Name: "git", Version: "2.43.0"}))
	require.NoError(t, m.Refresh(ctx))
	assert.Equal(t, "dnf", m.Name())
}

func TestManager_InstallFailure(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("dnf", []string{"install", "-y", "-q", "nosuch"}, ports.CommandResult{
		ExitCode: 1,
		Stderr:   "Error: Unable to find a match: nosuch",
	})

	err := New(runner, WithSudo(false)).Install(context.Background(), ports.Package{Name: "nosuch"})
	assert.EqualError(t, err, "dnf exited with code 1: Error: Unable to find a match: nosuch")
}

func TestManager_Available(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("dnf", []string{"--version"}, ports.CommandResult{ExitCode: 0})
	assert.True(t, New(runner).Available(context.Background()))

	empty := mocks.NewCommandRunner()
	assert.False(t, New(empty).Available(context.Background()))
}

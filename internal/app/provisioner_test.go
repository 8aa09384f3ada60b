package app

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/provision/internal/adapters/logging"
	"github.com/felixgeelhaar/provision/internal/domain/config"
	"github.com/felixgeelhaar/provision/internal/domain/envcheck"
	"github.com/felixgeelhaar/provision/internal/domain/execution"
	"github.com/felixgeelhaar/provision/internal/domain/ledger"
	"github.com/felixgeelhaar/provision/internal/domain/platform"
	"github.com/felixgeelhaar/provision/internal/domain/progress"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/testutil"
	"github.com/felixgeelhaar/provision/internal/testutil/mocks"
	"github.com/felixgeelhaar/provision/internal/ui"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeDialer struct {
	err   error
	calls int
}

func (d *fakeDialer) DialContext(_ context.Context, _, _ string) (net.Conn, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	client, server := net.Pipe()
	_ = server.Close()
	return client, nil
}

type harness struct {
	out       *bytes.Buffer
	log       *bytes.Buffer
	fs        *mocks.FileSystem
	pm        *mocks.PackageManager
	runner    *mocks.CommandRunner
	confirmer *mocks.Confirmer
	clock     *mocks.Clock
	dialer    *fakeDialer
}

func newHarness() *harness {
	return &harness{
		out:       &bytes.Buffer{},
		log:       &bytes.Buffer{},
		fs:        mocks.NewFileSystem(),
		pm:        mocks.NewPackageManager("apt"),
		runner:    mocks.NewCommandRunner(),
		confirmer: mocks.AlwaysYes(),
		clock:     mocks.NewClock(testStart),
		dialer:    &fakeDialer{},
	}
}

func ubuntu() *platform.Platform {
	return platform.New(platform.OSLinux, "amd64", platform.EnvNative).WithRelease("ubuntu", "22.04", "debian")
}

func (h *harness) provisioner(opts ...Option) *Provisioner {
	base := []Option{
		WithCommandRunner(h.runner),
		WithFileSystem(h.fs),
		WithPlatform(ubuntu()),
		WithLogger(logging.NewWriterLogger(h.log, logging.WithFileClock(h.clock.Now))),
		WithConfirmer(h.confirmer),
		WithStyles(ui.PlainStyles()),
		WithClock(h.clock.Now),
		WithEUID(func() int { return 0 }),
		WithHome("/home/dev"),
		WithPackageManager(h.pm),
		WithDialer(h.dialer),
		WithProgressOptions(progress.WithRedraw(false)),
	}
	return New(h.out, append(base, opts...)...)
}

func (h *harness) run(t *testing.T, p *Provisioner, m *config.Manifest) (ledger.Summary, error) {
	t.Helper()
	return p.Run(context.Background(), m, NewSession(p.Paths(), h.clock.Now()))
}

func TestProvisioner_Run_AllKinds(t *testing.T) {
	h := newHarness()
	h.runner.AddResult("sh", []string{"-c", "command -v starship"}, ports.CommandResult{ExitCode: 1})
	h.runner.AddResult("sh", []string{"-c", "curl -sS https://starship.rs/install.sh | sh -s -- -y"}, ports.CommandResult{})

	m := testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("Core tools").Refresh().WithPackages("git", "curl")).
		WithStep(testutil.NewStep("Dotfiles").
			WithFile("~/.config/provision/aliases.sh", "alias ll='ls -alF'\n").
			WithINI("~/.gitconfig", "init", map[string]string{"defaultBranch": "main"})).
		WithStep(testutil.NewStep("Prompt").
			WithCommand("starship", "command -v starship", "curl -sS https://starship.rs/install.sh | sh -s -- -y")).
		Build()

	summary, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"apt package index (Core tools)",
		"git",
		"curl",
		"/home/dev/.config/provision/aliases.sh",
		"/home/dev/.gitconfig [init]",
		"starship",
	}, ledger.Names(summary.Installed))
	assert.Equal(t, "SUCCESS (100%)", summary.Status())
	assert.Equal(t, []string{"git", "curl"}, h.pm.Installs())
	assert.Equal(t, 1, h.pm.Refreshes())

	content, ok := h.fs.Content("/home/dev/.config/provision/aliases.sh")
	require.True(t, ok)
	assert.Equal(t, "alias ll='ls -alF'\n", content)

	gitconfig, ok := h.fs.Content("/home/dev/.gitconfig")
	require.True(t, ok)
	assert.Contains(t, gitconfig, "[init]")
	assert.Contains(t, gitconfig, "main")

	assert.Contains(t, h.out.String(), "Provisioning Summary")
	assert.Contains(t, h.log.String(), "[SUCCESS] git installed")
}

func TestProvisioner_Run_SecondRunSkipsEverything(t *testing.T) {
	h := newHarness()
	m := testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("Core tools").Refresh().WithPackages("git", "jq")).
		WithStep(testutil.NewStep("Dotfiles").WithFile("~/.inputrc", "set completion-ignore-case on\n")).
		WithStep(testutil.NewStep("Prompt").WithCommand("starship", "command -v starship", "install-starship")).
		Build()

	h.runner.AddResults("sh", []string{"-c", "command -v starship"},
		ports.CommandResult{ExitCode: 1},
		ports.CommandResult{ExitCode: 0},
	)
	h.runner.AddResult("sh", []string{"-c", "install-starship"}, ports.CommandResult{})

	first, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"apt package index (Core tools)",
		"git",
		"jq",
		"/home/dev/.inputrc",
		"starship",
	}, ledger.Names(first.Installed))

	second, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)
	assert.Empty(t, second.Installed)
	assert.Empty(t, second.Failed)
	assert.Equal(t, ledger.Names(first.Installed), ledger.Names(second.Skipped))
	for _, e := range second.Skipped {
		assert.Equal(t, ledger.AlreadySatisfied, e.Reason())
	}
	assert.Equal(t, []string{"git", "jq"}, h.pm.Installs())
	assert.Equal(t, 1, h.pm.Refreshes())
}

func TestProvisioner_Run_RefreshSkippedWhenOptionalDeclined(t *testing.T) {
	h := newHarness()
	h.pm.MarkInstalled("git")
	h.confirmer = mocks.NewConfirmer().
		Answer(execution.BeginPrompt, true).
		Answer("Install Docker?", false)
	m := testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("Core tools").Refresh().
			WithPackages("git").
			WithOptionalPackage("docker", "Install Docker?", false)).
		Build()

	summary, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)
	assert.Empty(t, summary.Installed)
	assert.Equal(t, []string{"apt package index (Core tools)", "git", "docker"}, ledger.Names(summary.Skipped))
	assert.Equal(t, ledger.Declined, summary.Skipped[2].Reason())
	assert.Zero(t, h.pm.Refreshes())
}

func TestProvisioner_Run_FailedInstallIsTolerated(t *testing.T) {
	h := newHarness()
	h.pm.FailInstall("fzf", errors.New("E: Unable to locate package fzf"))

	m := testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("Search").WithPackages("ripgrep", "fzf")).
		Build()

	summary, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"ripgrep"}, ledger.Names(summary.Installed))
	assert.Equal(t, []string{"fzf"}, ledger.Names(summary.Failed))
	assert.Equal(t, "PARTIAL (50%)", summary.Status())
}

func TestProvisioner_Run_BackupFailureAborts(t *testing.T) {
	h := newHarness()
	diskFull := errors.New("disk full")
	h.fs.AddFile("/home/dev/.inputrc", "set bell-style none\n")
	h.fs.FailWrite("/home/dev/.provision/backups/20260301-090000/.inputrc.20260301-090000.bak", diskFull)

	m := testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("Core tools").WithPackages("git")).
		WithStep(testutil.NewStep("Dotfiles").WithFile("~/.inputrc", "set completion-ignore-case on\n")).
		WithStep(testutil.NewStep("Search").WithPackages("ripgrep")).
		Build()

	_, err := h.run(t, h.provisioner(), m)
	require.Error(t, err)

	var abort *execution.AbortError
	require.ErrorAs(t, err, &abort)
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, execution.PhaseProvisioning, abort.Phase)
	assert.Equal(t, "Dotfiles", abort.Step)
	assert.Equal(t, []string{"git"}, ledger.Names(abort.Summary.Installed))
	assert.Empty(t, abort.Summary.Failed)
	assert.Equal(t, []string{"git"}, h.pm.Installs())

	content, _ := h.fs.Content("/home/dev/.inputrc")
	assert.Equal(t, "set bell-style none\n", content)
	assert.Contains(t, h.out.String(), "PARTIAL REPORT")
}

func TestProvisioner_Compile_ManagerOverrides(t *testing.T) {
	h := newHarness()
	m := testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("Terminal").
			WithPackage(config.Package{Name: "fd", Managers: map[string]string{"apt": "fd-find"}}).
			WithPackage(config.Package{Name: "tmux", Managers: map[string]string{"apt": config.ExcludedMarker}}).
			WithPackage(config.Package{Name: "bat", Version: "0.24.0"})).
		Build()

	summary, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)

	assert.Equal(t, []string{"fd", "bat"}, ledger.Names(summary.Installed))
	assert.Equal(t, []string{"fd-find", "bat"}, h.pm.Installs())
	assert.Contains(t, h.log.String(), "[WARNING] Skipping tmux: not available on apt step=Terminal")
}

func TestProvisioner_Compile_DropsDuplicates(t *testing.T) {
	h := newHarness()
	m := testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("First").WithPackages("git")).
		WithStep(testutil.NewStep("Second").WithPackages("git", "jq")).
		Build()

	plan, err := h.provisioner().Compile(context.Background(), m, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second"}, plan.StepNames())

	summary, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "jq"}, ledger.Names(summary.Installed))
	assert.Contains(t, h.log.String(), "Skipping duplicate git step=Second first_declared_in=First")
}

func TestProvisioner_Run_OptionalDeclined(t *testing.T) {
	h := newHarness()
	h.confirmer = mocks.NewConfirmer().
		Answer(execution.BeginPrompt, true).
		Answer("Install Neovim?", false)

	m := testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("Editors").
			WithPackages("vim").
			WithOptionalPackage("neovim", "Install Neovim?", true)).
		Build()

	summary, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"vim"}, ledger.Names(summary.Installed))
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, "neovim", summary.Skipped[0].Name())
	assert.Equal(t, ledger.Declined, summary.Skipped[0].Reason())
	assert.Equal(t, []mocks.Prompt{
		{Text: execution.BeginPrompt, Default: true},
		{Text: "Install Neovim?", Default: true},
	}, h.confirmer.Prompts())
}

func TestProvisioner_Run_EnvironmentChecks(t *testing.T) {
	tests := []struct {
		name    string
		build   func(h *harness) *config.Manifest
		opts    []Option
		wantErr error
	}{
		{
			name: "unsupported platform",
			build: func(*harness) *config.Manifest {
				return testutil.NewManifestBuilder().WithPlatforms("darwin").
					WithStep(testutil.NewStep("Core").WithPackages("git")).Build()
			},
			wantErr: envcheck.ErrUnsupportedPlatform,
		},
		{
			name: "release too old",
			build: func(*harness) *config.Manifest {
				return testutil.NewManifestBuilder().WithMinVersion("ubuntu", "24.04").
					WithStep(testutil.NewStep("Core").WithPackages("git")).Build()
			},
			wantErr: envcheck.ErrVersionTooOld,
		},
		{
			name: "manager unavailable",
			build: func(h *harness) *config.Manifest {
				h.pm.SetAvailable(false)
				return testutil.NewManifestBuilder().
					WithStep(testutil.NewStep("Core").WithPackages("git")).Build()
			},
			wantErr: envcheck.ErrNoPackageManager,
		},
		{
			name: "network unreachable",
			build: func(h *harness) *config.Manifest {
				h.dialer.err = errors.New("connection refused")
				return testutil.NewManifestBuilder().WithNetworkHost("github.com:443").
					WithStep(testutil.NewStep("Core").WithPackages("git")).Build()
			},
			wantErr: envcheck.ErrUnreachable,
		},
		{
			name: "network host override",
			build: func(h *harness) *config.Manifest {
				h.dialer.err = errors.New("no route to host")
				return testutil.NewManifestBuilder().
					WithStep(testutil.NewStep("Core").WithPackages("git")).Build()
			},
			opts:    []Option{WithNetworkHost("mirror.internal:443")},
			wantErr: envcheck.ErrUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			m := tt.build(h)

			_, err := h.run(t, h.provisioner(tt.opts...), m)
			require.Error(t, err)

			var abort *execution.AbortError
			require.ErrorAs(t, err, &abort)
			assert.Equal(t, execution.PhaseValidating, abort.Phase)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, h.pm.Installs())
			assert.Empty(t, h.confirmer.Prompts())
			assert.Contains(t, h.out.String(), "PARTIAL REPORT")
		})
	}
}

func TestProvisioner_Run_SkipNetworkCheck(t *testing.T) {
	h := newHarness()
	h.dialer.err = errors.New("connection refused")
	m := testutil.NewManifestBuilder().WithNetworkHost("github.com:443").
		WithStep(testutil.NewStep("Core").WithPackages("git")).Build()

	summary, err := h.run(t, h.provisioner(WithSkipNetworkCheck(true)), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"git"}, ledger.Names(summary.Installed))
	assert.Zero(t, h.dialer.calls)
}

func TestProvisioner_Run_PrivilegedAsRoot(t *testing.T) {
	h := newHarness()
	m := testutil.NewManifestBuilder().Privileged().
		WithStep(testutil.NewStep("Core").WithPackages("git")).Build()

	_, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)
	assert.Empty(t, h.runner.Calls())
}

func TestProvisioner_Run_BacksUpExistingFiles(t *testing.T) {
	h := newHarness()
	h.fs.AddFile("/home/dev/.inputrc", "set bell-style none\n")
	m := testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("Dotfiles").WithFile("~/.inputrc", "set completion-ignore-case on\n")).
		Build()

	_, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)

	backup, ok := h.fs.Content("/home/dev/.provision/backups/20260301-090000/.inputrc.20260301-090000.bak")
	require.True(t, ok)
	assert.Equal(t, "set bell-style none\n", backup)
	assert.Contains(t, h.out.String(), "Backups:  /home/dev/.provision/backups/20260301-090000")
	assert.Contains(t, h.out.String(), "Log file: /home/dev/.provision/logs/provision-20260301-090000.log")
}

func TestProvisioner_Run_NoBackupFooterWhenUnused(t *testing.T) {
	h := newHarness()
	m := testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("Dotfiles").WithFile("~/.inputrc", "set completion-ignore-case on\n")).
		Build()

	_, err := h.run(t, h.provisioner(), m)
	require.NoError(t, err)
	assert.NotContains(t, h.out.String(), "Backups:")
}

type lockStub struct {
	err      error
	released bool
}

func (l *lockStub) Acquire(context.Context) (func() error, error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() error {
		l.released = true
		return nil
	}, nil
}

func TestProvisioner_Run_SessionLock(t *testing.T) {
	m := testutil.NewManifestBuilder().WithStep(testutil.NewStep("Core").WithPackages("git")).Build()

	t.Run("released after run", func(t *testing.T) {
		h := newHarness()
		lock := &lockStub{}
		_, err := h.run(t, h.provisioner(WithSessionLock(lock)), m)
		require.NoError(t, err)
		assert.True(t, lock.released)
	})

	t.Run("held elsewhere", func(t *testing.T) {
		h := newHarness()
		lock := &lockStub{err: ports.ErrLocked}
		_, err := h.run(t, h.provisioner(WithSessionLock(lock)), m)
		require.ErrorIs(t, err, ports.ErrLocked)
		assert.Empty(t, h.pm.Installs())
	})
}

func TestProvisioner_UnknownManager(t *testing.T) {
	h := newHarness()
	p := New(h.out,
		WithPlatform(ubuntu()),
		WithCommandRunner(h.runner),
		WithFileSystem(h.fs),
		WithManager("pacman"),
	)

	_, err := p.Compile(context.Background(), testutil.NewManifestBuilder().
		WithStep(testutil.NewStep("Core").WithPackages("git")).Build(), nil)

	var userErr *config.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, config.ErrCodeUnknownManager, userErr.Code)
}

func TestProvisioner_NoManagerDetected(t *testing.T) {
	h := newHarness()
	p := New(h.out,
		WithPlatform(platform.New(platform.OSLinux, "amd64", platform.EnvNative).WithRelease("arch", "")),
		WithCommandRunner(h.runner),
		WithFileSystem(h.fs),
		WithLogger(logging.NewNopLogger()),
		WithConfirmer(h.confirmer),
		WithStyles(ui.PlainStyles()),
		WithClock(h.clock.Now),
		WithHome("/home/dev"),
		WithProgressOptions(progress.WithRedraw(false)),
	)
	m := testutil.NewManifestBuilder().WithStep(testutil.NewStep("Core").WithPackages("git")).Build()

	_, err := p.Run(context.Background(), m, NewSession(p.Paths(), testStart))
	require.ErrorIs(t, err, envcheck.ErrNoPackageManager)
	assert.Empty(t, h.runner.Calls())
}

func TestNewPackageManager(t *testing.T) {
	runner := mocks.NewCommandRunner()
	plat := ubuntu()

	for _, name := range config.KnownManagers {
		t.Run(name, func(t *testing.T) {
			pm, err := NewPackageManager(name, runner, plat, true)
			require.NoError(t, err)
			assert.Equal(t, name, pm.Name())
		})
	}

	pm, err := NewPackageManager("", runner, plat, false)
	require.NoError(t, err)
	assert.Nil(t, pm)
}

func TestProvisioner_ManagerName(t *testing.T) {
	out := &bytes.Buffer{}
	darwin := platform.New(platform.OSDarwin, "arm64", platform.EnvNative)

	assert.Equal(t, "brew", New(out, WithPlatform(darwin)).ManagerName())
	assert.Equal(t, "apt", New(out, WithPlatform(ubuntu())).ManagerName())
	assert.Equal(t, "dnf", New(out, WithPlatform(ubuntu()), WithManager("dnf")).ManagerName())
}

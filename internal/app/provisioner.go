// Package app wires a manifest into an execution plan and runs it.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/felixgeelhaar/provision/internal/adapters/command"
	"github.com/felixgeelhaar/provision/internal/adapters/filesystem"
	"github.com/felixgeelhaar/provision/internal/adapters/logging"
	"github.com/felixgeelhaar/provision/internal/adapters/prompt"
	"github.com/felixgeelhaar/provision/internal/domain/backup"
	"github.com/felixgeelhaar/provision/internal/domain/config"
	"github.com/felixgeelhaar/provision/internal/domain/envcheck"
	"github.com/felixgeelhaar/provision/internal/domain/execution"
	"github.com/felixgeelhaar/provision/internal/domain/ledger"
	"github.com/felixgeelhaar/provision/internal/domain/platform"
	"github.com/felixgeelhaar/provision/internal/domain/progress"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/pathutil"
	"github.com/felixgeelhaar/provision/internal/ui"
)

// Provisioner is the main application orchestrator.
type Provisioner struct {
	out       io.Writer
	runner    ports.CommandRunner
	fs        ports.FileSystem
	platform  *platform.Platform
	logger    ports.Logger
	confirmer ports.Confirmer
	styles    ui.Styles
	now       func() time.Time
	euid      func() int
	expander  *pathutil.Expander
	paths     Paths
	lock      ports.SessionLock

	manager     string
	pm          ports.PackageManager
	skipNetwork bool
	networkHost string
	dialer      envcheck.Dialer

	progressOpts []progress.Option
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithCommandRunner replaces the real command runner.
func WithCommandRunner(r ports.CommandRunner) Option {
	return func(p *Provisioner) {
		p.runner = r
	}
}

// WithFileSystem replaces the real filesystem.
func WithFileSystem(fsys ports.FileSystem) Option {
	return func(p *Provisioner) {
		p.fs = fsys
	}
}

// WithPlatform replaces platform detection.
func WithPlatform(plat *platform.Platform) Option {
	return func(p *Provisioner) {
		p.platform = plat
	}
}

// WithLogger sets the session logger.
func WithLogger(l ports.Logger) Option {
	return func(p *Provisioner) {
		p.logger = l
	}
}

// WithConfirmer sets who answers the begin gate and optional units.
func WithConfirmer(c ports.Confirmer) Option {
	return func(p *Provisioner) {
		p.confirmer = c
	}
}

// WithStyles sets console styles.
func WithStyles(s ui.Styles) Option {
	return func(p *Provisioner) {
		p.styles = s
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Provisioner) {
		p.now = now
	}
}

// WithEUID replaces os.Geteuid.
func WithEUID(fn func() int) Option {
	return func(p *Provisioner) {
		p.euid = fn
	}
}

// WithHome roots ~ expansion and the default state paths at home.
func WithHome(home string) Option {
	return func(p *Provisioner) {
		p.expander = pathutil.NewExpander(home, nil)
		p.paths = DefaultPaths(home)
	}
}

// WithPaths overrides where logs, backups and the lock live.
func WithPaths(paths Paths) Option {
	return func(p *Provisioner) {
		p.paths = paths
	}
}

// WithSessionLock serialises runs on this machine.
func WithSessionLock(lock ports.SessionLock) Option {
	return func(p *Provisioner) {
		p.lock = lock
	}
}

// WithManager selects a package manager by name instead of detecting it.
func WithManager(name string) Option {
	return func(p *Provisioner) {
		p.manager = name
	}
}

// WithPackageManager uses pm for every package unit.
func WithPackageManager(pm ports.PackageManager) Option {
	return func(p *Provisioner) {
		p.pm = pm
	}
}

// WithSkipNetworkCheck disables the reachability check.
func WithSkipNetworkCheck(skip bool) Option {
	return func(p *Provisioner) {
		p.skipNetwork = skip
	}
}

// WithNetworkHost overrides requirements.network_host.
func WithNetworkHost(hostPort string) Option {
	return func(p *Provisioner) {
		p.networkHost = hostPort
	}
}

// WithDialer replaces the network dialer.
func WithDialer(d envcheck.Dialer) Option {
	return func(p *Provisioner) {
		p.dialer = d
	}
}

// WithProgressOptions passes options to the progress reporter.
func WithProgressOptions(opts ...progress.Option) Option {
	return func(p *Provisioner) {
		p.progressOpts = append(p.progressOpts, opts...)
	}
}

// New creates a Provisioner backed by the real system.
func New(out io.Writer, opts ...Option) *Provisioner {
	expander := pathutil.NewHomeExpander()
	p := &Provisioner{
		out:       out,
		runner:    command.NewRealRunner(),
		fs:        filesystem.NewRealFileSystem(),
		logger:    logging.NewNopLogger(),
		confirmer: prompt.NewStdioPrompter(),
		styles:    ui.DefaultStyles(),
		now:       time.Now,
		euid:      os.Geteuid,
		expander:  expander,
		paths:     DefaultPaths(expander.Home()),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.platform == nil {
		p.platform = platform.Detect()
	}
	return p
}

// Paths returns the state paths in use.
func (p *Provisioner) Paths() Paths {
	return p.paths
}

// Run compiles m and executes it as one session. The returned summary is
// valid whenever err is nil; a fatal abort returns *execution.AbortError.
func (p *Provisioner) Run(ctx context.Context, m *config.Manifest, session Session) (ledger.Summary, error) {
	guard := backup.NewGuard(p.fs, session.BackupDir, backup.WithClock(p.now))

	plan, err := p.Compile(ctx, m, guard)
	if err != nil {
		return ledger.Summary{}, err
	}

	opts := []execution.RunnerOption{
		execution.WithOutput(p.out),
		execution.WithStyles(p.styles),
		execution.WithClock(p.now),
		execution.WithSessionID(session.ID),
		execution.WithLogPath(session.LogPath),
		execution.WithBackupDir(func() string {
			if guard.Used() {
				return guard.Dir()
			}
			return ""
		}),
		execution.WithProgressOptions(p.progressOpts...),
	}
	if p.lock != nil {
		opts = append(opts, execution.WithSessionLock(p.lock))
	}

	p.logger.Debug(ctx, "Running manifest",
		ports.F("manifest", m.Name),
		ports.F("platform", p.platform.String()),
		ports.F("steps", len(plan.Steps)))

	return execution.NewRunner(p.confirmer, p.logger, opts...).Run(ctx, plan)
}

// printf is a helper that writes to the output writer, ignoring errors.
func (p *Provisioner) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

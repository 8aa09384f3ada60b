package main

import (
	"io"
	"time"

	"github.com/felixgeelhaar/provision/internal/adapters/logging"
	"github.com/felixgeelhaar/provision/internal/adapters/lockfile"
	"github.com/felixgeelhaar/provision/internal/adapters/prompt"
	"github.com/felixgeelhaar/provision/internal/app"
	"github.com/felixgeelhaar/provision/internal/domain/config"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/pathutil"
	"github.com/felixgeelhaar/provision/internal/ui"
)

// loadManifest reads --manifest, or the built-in manifest when unset.
func loadManifest() (*config.Manifest, error) {
	if manifestPath == "" {
		return config.LoadDefault()
	}
	return config.Load(manifestPath)
}

// resolvePaths applies --log-dir and --backup-dir to the default layout.
func resolvePaths(expander *pathutil.Expander) app.Paths {
	paths := app.DefaultPaths(expander.Home())
	if logDir != "" {
		paths.LogDir = expander.Expand(logDir)
	}
	if backupDir != "" {
		paths.BackupRoot = expander.Expand(backupDir)
	}
	return paths
}

// consoleStyles drops colors when out is not a terminal.
func consoleStyles(out io.Writer) ui.Styles {
	if ui.IsTerminal(out) {
		return ui.DefaultStyles()
	}
	return ui.PlainStyles()
}

// newConsoleLogger builds the console logger from --verbose and --log-format.
func newConsoleLogger(out io.Writer) *logging.ConsoleLogger {
	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}
	return logging.NewConsoleLogger(
		logging.WithOutput(out),
		logging.WithLevel(level),
		logging.WithJSONFormat(logFormat == "json"),
		logging.WithTimestamp(false),
		logging.WithStyles(consoleStyles(out)),
	)
}

// newConfirmer picks the confirmation source from --yes and
// --non-interactive. Neither flag means asking on the terminal.
func newConfirmer(logger ports.Logger) ports.Confirmer {
	switch {
	case yesFlag:
		return prompt.NewAssumeYes(logger)
	case nonInteractive:
		return prompt.NewDefaults(logger)
	default:
		return prompt.NewStdioPrompter()
	}
}

// appOptions maps the package-manager and network flags to app options.
func appOptions() []app.Option {
	opts := []app.Option{
		app.WithSkipNetworkCheck(skipNetworkCheck),
	}
	if managerName != "" {
		opts = append(opts, app.WithManager(managerName))
	}
	if networkHost != "" {
		opts = append(opts, app.WithNetworkHost(networkHost))
	}
	return opts
}

// provisioningSession is everything a `provision run` needs beyond the
// manifest.
type provisioningSession struct {
	session app.Session
	paths   app.Paths
	logger  ports.Logger
	file    *logging.FileLogger
}

// openSession names the session and opens its log file.
func openSession(out io.Writer, now time.Time) (*provisioningSession, error) {
	expander := pathutil.NewHomeExpander()
	paths := resolvePaths(expander)
	session := app.NewSession(paths, now)

	file, err := logging.NewFileLogger(session.LogPath)
	if err != nil {
		return nil, err
	}
	logger := logging.NewTeeLogger(newConsoleLogger(out), file)

	return &provisioningSession{
		session: session,
		paths:   paths,
		logger:  logger,
		file:    file,
	}, nil
}

// provisioner builds the app for this session.
func (s *provisioningSession) provisioner(out io.Writer) *app.Provisioner {
	opts := append([]app.Option{
		app.WithLogger(s.logger),
		app.WithConfirmer(newConfirmer(s.logger)),
		app.WithStyles(consoleStyles(out)),
		app.WithPaths(s.paths),
		app.WithSessionLock(lockfile.New(s.paths.LockFile)),
	}, appOptions()...)
	return app.New(out, opts...)
}

// Close flushes and closes the session log.
func (s *provisioningSession) Close() error {
	return s.file.Close()
}

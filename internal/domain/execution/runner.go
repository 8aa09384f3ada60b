package execution

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/felixgeelhaar/provision/internal/domain/ledger"
	"github.com/felixgeelhaar/provision/internal/domain/progress"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/ui"
)

// BeginPrompt is the gate shown after environment validation.
const BeginPrompt = "Begin installation?"

// Runner sequences a Plan. One Runner drives one session; Run is not
// reentrant.
type Runner struct {
	confirmer    ports.Confirmer
	logger       ports.Logger
	lock         ports.SessionLock
	out          io.Writer
	styles       ui.Styles
	now          func() time.Time
	sessionID    string
	logPath      string
	backupDir    func() string
	progressOpts []progress.Option
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOutput sets where the progress bar and reports are written
// (default: os.Stdout).
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.out = w
	}
}

// WithStyles sets console styles for the progress bar and report.
func WithStyles(s ui.Styles) RunnerOption {
	return func(r *Runner) {
		r.styles = s
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// WithSessionLock acquires lock for the duration of the run.
func WithSessionLock(lock ports.SessionLock) RunnerOption {
	return func(r *Runner) {
		r.lock = lock
	}
}

// WithSessionID tags the session in logs and the report.
func WithSessionID(id string) RunnerOption {
	return func(r *Runner) {
		r.sessionID = id
	}
}

// WithLogPath names the session log file in reports.
func WithLogPath(path string) RunnerOption {
	return func(r *Runner) {
		r.logPath = path
	}
}

// WithBackupDir reports the backup directory when dir returns non-empty.
// It is evaluated after the run, so lazily created directories are only
// shown when used.
func WithBackupDir(dir func() string) RunnerOption {
	return func(r *Runner) {
		r.backupDir = dir
	}
}

// WithProgressOptions passes options to the progress reporter.
func WithProgressOptions(opts ...progress.Option) RunnerOption {
	return func(r *Runner) {
		r.progressOpts = append(r.progressOpts, opts...)
	}
}

// NewRunner creates a Runner.
func NewRunner(confirmer ports.Confirmer, logger ports.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		confirmer: confirmer,
		logger:    logger,
		out:       os.Stdout,
		styles:    ui.DefaultStyles(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run holds the state of a single Run call.
type run struct {
	*Runner
	lc     *lifecycle
	ledger *ledger.Ledger
	step   string
}

// Run executes plan. It returns the final summary once every step has run,
// even when some units failed. Any fatal error returns an *AbortError after
// printing a partial report.
func (r *Runner) Run(ctx context.Context, plan Plan) (ledger.Summary, error) {
	lc, err := newLifecycle()
	if err != nil {
		return ledger.Summary{}, err
	}
	defer lc.stop()

	rn := &run{
		Runner: r,
		lc:     lc,
		ledger: ledger.New(r.now(), ledger.WithClock(r.now)),
	}
	return rn.execute(ctx, plan)
}

func (rn *run) execute(ctx context.Context, plan Plan) (ledger.Summary, error) {
	if rn.lock != nil {
		release, err := rn.lock.Acquire(ctx)
		if err != nil {
			return rn.abort(ctx, err)
		}
		defer func() {
			if err := release(); err != nil {
				rn.logger.Warn(ctx, "Failed to release session lock", ports.F("error", err))
			}
		}()
	}

	if rn.sessionID != "" {
		rn.logger.Info(ctx, "Provisioning session started", ports.F("session", rn.sessionID))
	}

	rn.lc.send(EventValidate, nil)
	rn.logger.Header(ctx, "Validating environment")
	for _, check := range plan.Checks {
		if err := rn.check(ctx, check); err != nil {
			return rn.abort(ctx, err)
		}
	}

	rn.lc.send(EventConfirm, nil)
	yes, err := rn.confirmer.Confirm(ctx, BeginPrompt, true)
	if err != nil {
		return rn.abort(ctx, fmt.Errorf("confirm start: %w", err))
	}
	if !yes {
		return rn.abort(ctx, ErrDeclined)
	}

	rn.lc.send(EventProvision, nil)
	popts := []progress.Option{
		progress.WithOutput(rn.out),
		progress.WithStyles(rn.styles),
		progress.WithClock(rn.now),
	}
	reporter := progress.NewReporter(len(plan.Steps), append(popts, rn.progressOpts...)...)
	reporter.Start()

	sess := &Session{
		id:        rn.sessionID,
		ledger:    rn.ledger,
		confirmer: rn.confirmer,
		logger:    rn.logger,
	}

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			reporter.Finish()
			return rn.abort(ctx, err)
		}
		rn.step = step.Name
		rn.logger.Header(ctx, step.Name)
		if err := runStep(ctx, step, sess); err != nil {
			reporter.Finish()
			return rn.abort(ctx, err)
		}
		reporter.Advance(step.Name)
	}
	reporter.Finish()
	rn.step = ""

	rn.lc.send(EventComplete, nil)
	summary := rn.ledger.Summarize(rn.now())
	rn.logger.Header(ctx, "Provisioning complete", ports.F("status", summary.Status()))
	rn.report().Full(summary)
	return summary, nil
}

// check evaluates an environment check: probe, and apply when unsatisfied.
func (rn *run) check(ctx context.Context, u WorkUnit) error {
	ok, err := u.Probe(ctx)
	if err != nil {
		return fmt.Errorf("environment check %s: %w", u.Name(), err)
	}
	if !ok {
		if err := u.Apply(ctx); err != nil {
			return fmt.Errorf("environment check %s: %w", u.Name(), err)
		}
	}
	rn.logger.Success(ctx, u.Name())
	return nil
}

// runStep runs one step, turning a panic into a *PanicError.
func runStep(ctx context.Context, step Step, sess *Session) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	if step.Run == nil {
		return nil
	}
	return step.Run(ctx, sess)
}

func (rn *run) abort(ctx context.Context, cause error) (ledger.Summary, error) {
	phase := rn.lc.phase()
	if rn.lc.send(EventAbort, cause) == PhaseAborted {
		cause = rn.lc.cause()
	}

	summary := rn.ledger.Summarize(rn.now())
	fields := []ports.Field{ports.F("error", cause), ports.F("phase", string(phase))}
	if rn.step != "" {
		fields = append(fields, ports.F("step", rn.step))
	}
	rn.logger.Error(ctx, "Provisioning aborted", fields...)
	rn.report().Partial(summary, cause)

	return summary, &AbortError{
		Phase:   phase,
		Step:    rn.step,
		Cause:   cause,
		Summary: summary,
		LogPath: rn.logPath,
	}
}

func (rn *run) report() *ledger.Report {
	opts := []ledger.ReportOption{
		ledger.WithStyles(rn.styles),
		ledger.WithSession(rn.sessionID),
		ledger.WithLogPath(rn.logPath),
	}
	if rn.backupDir != nil {
		opts = append(opts, ledger.WithBackupDir(rn.backupDir()))
	}
	return ledger.NewReport(rn.out, opts...)
}

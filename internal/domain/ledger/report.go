package ledger

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/provision/internal/domain/progress"
	"github.com/felixgeelhaar/provision/internal/ui"
)

// Report renders summaries to a writer.
type Report struct {
	out       io.Writer
	styles    ui.Styles
	sessionID string
	logPath   string
	backupDir string
}

// ReportOption configures a Report.
type ReportOption func(*Report)

// WithStyles sets the styles (default: ui.PlainStyles).
func WithStyles(s ui.Styles) ReportOption {
	return func(r *Report) {
		r.styles = s
	}
}

// WithSession prints the session id in the full report.
func WithSession(id string) ReportOption {
	return func(r *Report) {
		r.sessionID = id
	}
}

// WithLogPath prints the session log path.
func WithLogPath(path string) ReportOption {
	return func(r *Report) {
		r.logPath = path
	}
}

// WithBackupDir prints where backups were written.
func WithBackupDir(dir string) ReportOption {
	return func(r *Report) {
		r.backupDir = dir
	}
}

// NewReport creates a report writer.
func NewReport(out io.Writer, opts ...ReportOption) *Report {
	r := &Report{out: out, styles: ui.PlainStyles()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Full prints the complete end-of-run report: labeled lists in recorded
// order and the status line.
func (r *Report) Full(s Summary) {
	st := r.styles

	r.printf("\n%s\n", st.Title.Render("Provisioning Summary"))
	r.printf("====================\n\n")

	if r.sessionID != "" {
		r.printf("Session:  %s\n", r.sessionID)
	}
	r.printf("Elapsed:  %s\n", progress.FormatDuration(s.Elapsed))
	r.printf("Status:   %s\n", r.statusStyle(s).Render(s.Status()))

	r.printf("\nInstalled (%d):\n", len(s.Installed))
	for _, e := range s.Installed {
		r.printf("  %s %s\n", st.Success.Render("✓"), e.Name())
	}

	r.printf("\nSkipped (%d):\n", len(s.Skipped))
	for _, e := range s.Skipped {
		r.printf("  %s %s %s\n", st.Muted.Render("-"), e.Name(), st.Muted.Render("("+e.Reason().String()+")"))
	}

	r.printf("\nFailed (%d):\n", len(s.Failed))
	for _, e := range s.Failed {
		if e.Err() != nil {
			r.printf("  %s %s: %v\n", st.Error.Render("✗"), e.Name(), e.Err())
		} else {
			r.printf("  %s %s\n", st.Error.Render("✗"), e.Name())
		}
	}

	r.footer()
}

// Partial prints the counts-only report shown when a run aborts.
func (r *Report) Partial(s Summary, cause error) {
	st := r.styles

	r.printf("\n%s\n", st.Error.Render("PARTIAL REPORT (run aborted)"))
	r.printf("============================\n\n")

	if cause != nil {
		r.printf("Reason:    %v\n", cause)
	}
	r.printf("Elapsed:   %s\n", progress.FormatDuration(s.Elapsed))
	r.printf("Installed: %d\n", len(s.Installed))
	r.printf("Skipped:   %d\n", len(s.Skipped))
	r.printf("Failed:    %d\n", len(s.Failed))
	r.printf("\n%s\n", st.Hint.Render("Re-running is safe: completed items are detected and skipped."))

	r.footer()
}

func (r *Report) footer() {
	if r.backupDir != "" {
		r.printf("\nBackups:  %s\n", r.backupDir)
	}
	if r.logPath != "" {
		r.printf("Log file: %s\n", r.logPath)
	}
}

func (r *Report) statusStyle(s Summary) lipgloss.Style {
	if s.Empty() || len(s.Failed) > 0 {
		return r.styles.Warning
	}
	return r.styles.Success
}

// printf writes to the output writer, ignoring errors.
func (r *Report) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

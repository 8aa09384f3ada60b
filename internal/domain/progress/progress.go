// Package progress renders the step progress bar with elapsed time and a
// linear estimate of the time remaining.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/provision/internal/ui"
)

// DefaultWidth is the bar width in cells.
const DefaultWidth = 30

// Snapshot is the reporter state after an Advance.
type Snapshot struct {
	Counter int
	Total   int
	Percent int
	Filled  int
	Elapsed time.Duration
	// Remaining is only meaningful when HasETA is true.
	Remaining time.Duration
	HasETA    bool
}

// Compute derives the bar state from the counter, total, bar width and
// elapsed time. All ratios use integer division.
func Compute(counter, total, width int, elapsed time.Duration) Snapshot {
	s := Snapshot{Counter: counter, Total: total, Elapsed: elapsed}
	if total <= 0 {
		s.Percent = 100
		s.Filled = width
		return s
	}
	s.Percent = counter * 100 / total
	s.Filled = counter * width / total
	if counter > 1 {
		estimated := elapsed * time.Duration(total) / time.Duration(counter)
		s.Remaining = estimated - elapsed
		s.HasETA = true
	}
	return s
}

// Reporter tracks the step counter against a fixed total and draws the bar.
// It is not safe for concurrent use.
type Reporter struct {
	out     io.Writer
	styles  ui.Styles
	now     func() time.Time
	total   int
	width   int
	counter int
	start   time.Time
	redraw  bool
	drawn   bool
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithOutput sets the writer (default: os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(r *Reporter) {
		r.out = w
	}
}

// WithWidth sets the bar width.
func WithWidth(width int) Option {
	return func(r *Reporter) {
		if width > 0 {
			r.width = width
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// WithStyles sets the bar styles.
func WithStyles(s ui.Styles) Option {
	return func(r *Reporter) {
		r.styles = s
	}
}

// WithRedraw forces in-place redraw on or off. By default it is on when the
// output is a terminal outside CI.
func WithRedraw(enabled bool) Option {
	return func(r *Reporter) {
		r.redraw = enabled
	}
}

// NewReporter creates a reporter for total top-level steps.
func NewReporter(total int, opts ...Option) *Reporter {
	r := &Reporter{
		out:    os.Stdout,
		styles: ui.DefaultStyles(),
		now:    time.Now,
		total:  total,
		width:  DefaultWidth,
	}
	r.redraw = ui.IsTerminal(r.out) && !ui.IsCI()
	for _, opt := range opts {
		opt(r)
	}
	r.start = r.now()
	return r
}

// Start resets the clock and counter for a new run.
func (r *Reporter) Start() {
	r.start = r.now()
	r.counter = 0
	r.drawn = false
}

// Counter returns the number of completed steps.
func (r *Reporter) Counter() int {
	return r.counter
}

// Total returns the declared number of steps.
func (r *Reporter) Total() int {
	return r.total
}

// Advance marks one more step complete and redraws. The counter never
// exceeds the total.
func (r *Reporter) Advance(label string) Snapshot {
	if r.counter < r.total {
		r.counter++
	}
	s := Compute(r.counter, r.total, r.width, r.now().Sub(r.start))
	r.draw(s, label)
	return s
}

// Finish ends an in-place bar with a newline.
func (r *Reporter) Finish() {
	if r.redraw && r.drawn {
		_, _ = fmt.Fprintln(r.out)
		r.drawn = false
	}
}

func (r *Reporter) draw(s Snapshot, label string) {
	line := r.Line(s, label)
	if r.redraw {
		_, _ = fmt.Fprintf(r.out, "\r%s\x1b[K", line)
		r.drawn = true
		if s.Counter == s.Total {
			r.Finish()
		}
		return
	}
	_, _ = fmt.Fprintln(r.out, line)
}

// Line renders one progress line for s.
func (r *Reporter) Line(s Snapshot, label string) string {
	empty := r.width - s.Filled
	if empty < 0 {
		empty = 0
	}
	bar := r.styles.ProgressFilled.Render(strings.Repeat("█", s.Filled)) +
		r.styles.ProgressEmpty.Render(strings.Repeat("░", empty))

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %3d%% (%d/%d)", bar, s.Percent, s.Counter, s.Total)
	if label != "" {
		fmt.Fprintf(&b, " %s", label)
	}
	fmt.Fprintf(&b, " | elapsed %s", FormatDuration(s.Elapsed))
	if s.HasETA {
		fmt.Fprintf(&b, " | eta %s", FormatDuration(s.Remaining))
	}
	return b.String()
}

// FormatDuration formats d as XhYmZs, omitting leading zero units:
// 5s, 2m3s, 1h0m4s.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

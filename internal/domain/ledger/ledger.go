// Package ledger records the outcome of every work unit in a provisioning
// run and summarizes them for the end-of-run report.
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Outcome is the result of evaluating one work unit.
type Outcome int

const (
	// Installed means the apply action ran and succeeded.
	Installed Outcome = iota
	// Skipped means the apply action did not run.
	Skipped
	// Failed means the apply action ran and reported an error.
	Failed
)

// String returns the lower-case outcome name.
func (o Outcome) String() string {
	switch o {
	case Installed:
		return "installed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// SkipReason explains a Skipped outcome.
type SkipReason int

const (
	// NoReason is used for outcomes other than Skipped.
	NoReason SkipReason = iota
	// AlreadySatisfied means the probe found the unit already in place.
	AlreadySatisfied
	// Declined means the user answered no at the confirmation gate.
	Declined
)

// String returns the reason as shown in reports.
func (r SkipReason) String() string {
	switch r {
	case AlreadySatisfied:
		return "already satisfied"
	case Declined:
		return "declined"
	default:
		return ""
	}
}

// ErrAlreadyRecorded is returned when a name is recorded twice.
var ErrAlreadyRecorded = errors.New("already recorded")

// Entry is one recorded outcome.
type Entry struct {
	name    string
	outcome Outcome
	reason  SkipReason
	err     error
	at      time.Time
}

// Name returns the work unit name.
func (e Entry) Name() string { return e.name }

// Outcome returns the recorded outcome.
func (e Entry) Outcome() Outcome { return e.outcome }

// Reason returns the skip reason, NoReason for other outcomes.
func (e Entry) Reason() SkipReason { return e.reason }

// Err returns the apply error of a Failed entry.
func (e Entry) Err() error { return e.err }

// At returns when the entry was recorded.
func (e Entry) At() time.Time { return e.at }

// Ledger is an append-only, in-memory record of outcomes in execution order.
// It is owned by the single goroutine driving the run.
type Ledger struct {
	start   time.Time
	now     func() time.Time
	entries []Entry
	names   map[string]Outcome
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates an empty ledger for a run that started at start.
func New(start time.Time, opts ...Option) *Ledger {
	l := &Ledger{
		start: start,
		now:   time.Now,
		names: make(map[string]Outcome),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start returns the run start time.
func (l *Ledger) Start() time.Time {
	return l.start
}

func (l *Ledger) record(e Entry) error {
	if prev, ok := l.names[e.name]; ok {
		return fmt.Errorf("%q %w as %s", e.name, ErrAlreadyRecorded, prev)
	}
	e.at = l.now()
	l.names[e.name] = e.outcome
	l.entries = append(l.entries, e)
	return nil
}

// RecordInstalled records a successful apply.
func (l *Ledger) RecordInstalled(name string) error {
	return l.record(Entry{name: name, outcome: Installed})
}

// RecordSkipped records a unit whose apply did not run.
func (l *Ledger) RecordSkipped(name string, reason SkipReason) error {
	if reason == NoReason {
		return fmt.Errorf("skip of %q needs a reason", name)
	}
	return l.record(Entry{name: name, outcome: Skipped, reason: reason})
}

// RecordFailed records a failed apply.
func (l *Ledger) RecordFailed(name string, err error) error {
	return l.record(Entry{name: name, outcome: Failed, err: err})
}

// Has reports whether name has been recorded.
func (l *Ledger) Has(name string) bool {
	_, ok := l.names[name]
	return ok
}

// Len returns the number of recorded entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of all entries in recorded order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Summarize computes the end-of-run summary as of now.
func (l *Ledger) Summarize(now time.Time) Summary {
	s := Summary{Elapsed: now.Sub(l.start)}
	if s.Elapsed < 0 {
		s.Elapsed = 0
	}
	for _, e := range l.entries {
		switch e.outcome {
		case Installed:
			s.Installed = append(s.Installed, e)
		case Skipped:
			s.Skipped = append(s.Skipped, e)
		case Failed:
			s.Failed = append(s.Failed, e)
		}
	}
	return s
}

package ledger

import (
	"fmt"
	"time"
)

// Status line constants.
const (
	StatusSuccess     = "SUCCESS (100%)"
	StatusNoneHandled = "NO ITEMS PROCESSED"
	statusPartialFmt  = "PARTIAL (%d%%)"
)

// Summary is a snapshot of the ledger for reporting.
type Summary struct {
	Elapsed   time.Duration
	Installed []Entry
	Skipped   []Entry
	Failed    []Entry
}

// Total returns the number of processed units.
func (s Summary) Total() int {
	return len(s.Installed) + len(s.Skipped) + len(s.Failed)
}

// Empty reports whether nothing was recorded.
func (s Summary) Empty() bool {
	return s.Total() == 0
}

// SuccessRate returns installed*100/total truncated. ok is false when
// nothing was processed.
func (s Summary) SuccessRate() (rate int, ok bool) {
	total := s.Total()
	if total == 0 {
		return 0, false
	}
	return len(s.Installed) * 100 / total, true
}

// Status returns the status line: SUCCESS (100%) without failures,
// PARTIAL (<rate>%) with failures, NO ITEMS PROCESSED when empty.
func (s Summary) Status() string {
	rate, ok := s.SuccessRate()
	switch {
	case !ok:
		return StatusNoneHandled
	case len(s.Failed) == 0:
		return StatusSuccess
	default:
		return fmt.Sprintf(statusPartialFmt, rate)
	}
}

// Names returns the unit names of entries.
func Names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name()
	}
	return out
}

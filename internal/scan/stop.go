package scan

import (
	"context"
	"time"

	"transferScan/internal/aggregate"
)

// Status is the scan state visible to stop conditions.
type Status struct {
	Cursor  uint64
	Elapsed time.Duration
	Totals  aggregate.Snapshot
}

// StopCondition ends a scan early. It is checked after every fetch, before
// the page is folded.
type StopCondition func(Status) (reason string, stop bool)

// ContextDone stops once ctx is cancelled.
func ContextDone(ctx context.Context) StopCondition {
	return func(Status) (string, bool) {
		if ctx.Err() != nil {
			return "cancelled", true
		}
		return "", false
	}
}

// MaxDuration stops once the scan has run for at least d.
func MaxDuration(d time.Duration) StopCondition {
	return func(s Status) (string, bool) {
		if d > 0 && s.Elapsed >= d {
			return "time budget reached", true
		}
		return "", false
	}
}

// MaxRecords stops once the primary counter of kind reaches n.
func MaxRecords(kind Kind, n uint64) StopCondition {
	return func(s Status) (string, bool) {
		if n > 0 && kind.Count(s.Totals) >= n {
			return kind.Unit() + " budget reached", true
		}
		return "", false
	}
}

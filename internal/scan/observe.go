package scan

import (
	"time"

	"transferScan/internal/aggregate"
	"transferScan/internal/decode"
	"transferScan/internal/model"
)

// Progress is emitted once per folded page.
type Progress struct {
	Kind           Kind
	Cursor         uint64
	Elapsed        time.Duration
	Totals         aggregate.Snapshot
	Rate           float64
	DecodeFailures uint64
	Pages          uint64
}

// Sample is one representative record of a page. Exactly one of the
// record fields is set.
type Sample struct {
	Kind        Kind
	Cursor      uint64
	Record      *decode.Record
	Log         *model.RawLog
	Transaction *model.Transaction
	Trace       *model.Trace
	Block       *model.Block
}

// Summary is the result of a completed scan.
type Summary struct {
	Kind           Kind
	Reason         string
	Cursor         uint64
	Elapsed        time.Duration
	Totals         aggregate.Snapshot
	DecodeFailures uint64
	Pages          uint64
}

// Reporter observes a scan. Calls are made from the scan goroutine, in order.
type Reporter interface {
	Start(kind Kind, q model.Query)
	Progress(p Progress)
	Sample(s Sample)
	Finish(s Summary)
}

type nopReporter struct{}

func (nopReporter) Start(Kind, model.Query) {}
func (nopReporter) Progress(Progress)       {}
func (nopReporter) Sample(Sample)           {}
func (nopReporter) Finish(Summary)          {}

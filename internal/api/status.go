package api

import (
	"sync"
	"time"

	"transferScan/internal/aggregate"
	"transferScan/internal/model"
	"transferScan/internal/scan"
)

// Status is the JSON body served by GET /status.
type Status struct {
	Kind           string             `json:"kind"`
	State          string             `json:"state"`
	Reason         string             `json:"reason,omitempty"`
	FromBlock      uint64             `json:"from_block"`
	ToBlock        *uint64            `json:"to_block,omitempty"`
	NextBlock      uint64             `json:"next_block"`
	ElapsedSeconds float64            `json:"elapsed_seconds"`
	Rate           float64            `json:"rate"`
	Pages          uint64             `json:"pages"`
	DecodeFailures uint64             `json:"decode_failures"`
	Totals         aggregate.Snapshot `json:"totals"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// StatusReporter keeps the latest observation for the status endpoint.
type StatusReporter struct {
	mu     sync.RWMutex
	status Status
}

func NewStatusReporter() *StatusReporter {
	return &StatusReporter{status: Status{State: "idle"}}
}

// Status returns a copy of the latest observation.
func (r *StatusReporter) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *StatusReporter) Start(kind scan.Kind, q model.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = Status{
		Kind:      string(kind),
		State:     "running",
		FromBlock: q.FromBlock,
		ToBlock:   q.ToBlock,
		NextBlock: q.FromBlock,
		Totals:    aggregate.NewState().Snapshot(),
		UpdatedAt: time.Now().UTC(),
	}
}

func (r *StatusReporter) Progress(p scan.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.NextBlock = p.Cursor
	r.status.ElapsedSeconds = p.Elapsed.Seconds()
	r.status.Rate = p.Rate
	r.status.Pages = p.Pages
	r.status.DecodeFailures = p.DecodeFailures
	r.status.Totals = p.Totals
	r.status.UpdatedAt = time.Now().UTC()
}

func (r *StatusReporter) Sample(scan.Sample) {}

func (r *StatusReporter) Finish(s scan.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.State = "finished"
	r.status.Reason = s.Reason
	r.status.NextBlock = s.Cursor
	r.status.ElapsedSeconds = s.Elapsed.Seconds()
	r.status.Pages = s.Pages
	r.status.DecodeFailures = s.DecodeFailures
	r.status.Totals = s.Totals
	r.status.UpdatedAt = time.Now().UTC()
}

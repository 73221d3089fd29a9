// Package scan drives a cursor through a paged block source, folding every
// page into running totals until the tip, the end bound, or a stop condition
// is reached.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"transferScan/internal/aggregate"
	"transferScan/internal/checkpoint"
	"transferScan/internal/decode"
	"transferScan/internal/fetch"
	"transferScan/internal/model"
	"transferScan/internal/storage"
)

// ErrProtocolViolation is returned when a page reports a missing or
// non-advancing next block.
var ErrProtocolViolation = errors.New("protocol violation")

const (
	ReasonTipReached    = "tip reached"
	ReasonTargetReached = "target block reached"
)

// Config holds the collaborators of a Runner. Only Fetcher is required.
type Config struct {
	Kind       Kind
	Query      model.Query
	Fetcher    fetch.Fetcher
	Decoder    *decode.Decoder
	Reporter   Reporter
	Checkpoint checkpoint.Store
	Sink       storage.Sink
	Stops      []StopCondition
	Logger     *zap.Logger
	Now        func() time.Time
}

// Runner owns the cursor and the aggregate state of one scan.
type Runner struct {
	cfg      Config
	logger   *zap.Logger
	reporter Reporter
	now      func() time.Time

	state    *aggregate.State
	cursor   uint64
	started  time.Time
	failures uint64
	pages    uint64
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg Config) *Runner {
	r := &Runner{
		cfg:      cfg,
		logger:   cfg.Logger,
		reporter: cfg.Reporter,
		now:      cfg.Now,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.reporter == nil {
		r.reporter = nopReporter{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.cfg.Kind == "" {
		r.cfg.Kind = KindTransfers
	}
	if r.cfg.Checkpoint == nil {
		r.cfg.Checkpoint = checkpoint.Nop{}
	}
	return r
}

// Run executes the scan loop. It returns a Summary when the tip, the end
// bound or a stop condition is reached, and an error on fetch, protocol,
// sink or checkpoint failures.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.cfg.Fetcher == nil {
		return Summary{}, fmt.Errorf("fetcher is nil")
	}
	if err := r.cfg.Query.Validate(); err != nil {
		return Summary{}, fmt.Errorf("invalid query: %w", err)
	}

	r.state = aggregate.NewState()
	r.cursor = r.cfg.Query.FromBlock
	if err := r.resume(ctx); err != nil {
		return Summary{}, err
	}

	r.started = r.now()
	r.reporter.Start(r.cfg.Kind, r.cfg.Query.WithFromBlock(r.cursor))

	for {
		query := r.cfg.Query.WithFromBlock(r.cursor)
		page, err := r.cfg.Fetcher.Fetch(ctx, query)

		reason, done, err := r.decide(ctx, page, err)
		if err != nil {
			return Summary{}, err
		}
		if done {
			return r.finish(reason), nil
		}

		if err := r.process(ctx, page); err != nil {
			return Summary{}, err
		}
	}
}

// decide returns the terminal reason, if any, for a fetch result.
func (r *Runner) decide(ctx context.Context, page *model.Page, fetchErr error) (string, bool, error) {
	if fetchErr != nil {
		if errors.Is(fetchErr, fetch.ErrExhausted) {
			return ReasonTipReached, true, nil
		}
		if ctx.Err() != nil && errors.Is(fetchErr, ctx.Err()) {
			return "cancelled", true, nil
		}
		return "", false, fmt.Errorf("fetch page at block %d: %w", r.cursor, fetchErr)
	}
	if page == nil {
		return "", false, fmt.Errorf("%w: empty response at block %d", ErrProtocolViolation, r.cursor)
	}

	if end := r.cfg.Query.ToBlock; end != nil && page.NextBlock > *end {
		return ReasonTargetReached, true, nil
	}

	status := r.status()
	for _, stop := range r.cfg.Stops {
		if reason, ok := stop(status); ok {
			return reason, true, nil
		}
	}

	if page.NextBlock == 0 {
		return "", false, fmt.Errorf("%w: missing next block after %d", ErrProtocolViolation, r.cursor)
	}
	if page.NextBlock <= r.cursor {
		return "", false, fmt.Errorf("%w: next block %d does not advance cursor %d", ErrProtocolViolation, page.NextBlock, r.cursor)
	}
	return "", false, nil
}

// process decodes, folds and reports one page, then advances the cursor.
func (r *Runner) process(ctx context.Context, page *model.Page) error {
	var decoded []*decode.Record
	if r.cfg.Decoder != nil && len(page.Logs) > 0 {
		var failures []decode.Failure
		decoded, failures = r.cfg.Decoder.Decode(page.Logs)
		for _, failure := range failures {
			r.logger.Debug("decode log failed",
				zap.Int("index", failure.Index),
				zap.Uint64("block", page.Logs[failure.Index].BlockNumber),
				zap.String("topic0", failure.Topic0.Hex()),
				zap.Error(failure.Err),
			)
		}
		r.failures += uint64(len(failures))
	}

	r.state.Fold(page, decoded)
	snapshot := r.state.Snapshot()
	r.pages++

	if err := r.writeTransfers(ctx, decoded); err != nil {
		return err
	}
	if err := r.cfg.Checkpoint.Save(ctx, checkpoint.Checkpoint{
		NextBlock: page.NextBlock,
		Totals:    snapshot,
		UpdatedAt: r.now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("save checkpoint at block %d: %w", page.NextBlock, err)
	}

	r.cursor = page.NextBlock

	elapsed := r.now().Sub(r.started)
	r.reporter.Progress(Progress{
		Kind:           r.cfg.Kind,
		Cursor:         r.cursor,
		Elapsed:        elapsed,
		Totals:         snapshot,
		Rate:           aggregate.Rate(r.cfg.Kind.Count(snapshot), elapsed.Seconds()),
		DecodeFailures: r.failures,
		Pages:          r.pages,
	})
	if sample, ok := r.sample(page, decoded); ok {
		r.reporter.Sample(sample)
	}
	return nil
}

func (r *Runner) writeTransfers(ctx context.Context, decoded []*decode.Record) error {
	if r.cfg.Sink == nil || len(decoded) == 0 {
		return nil
	}
	transfers := make([]model.Transfer, 0, len(decoded))
	for _, rec := range decoded {
		if transfer, ok := decode.AsTransfer(rec); ok {
			transfers = append(transfers, transfer)
		}
	}
	if len(transfers) == 0 {
		return nil
	}
	if err := r.cfg.Sink.PutTransfers(ctx, transfers); err != nil {
		return fmt.Errorf("store transfers: %w", err)
	}
	return nil
}

// sample picks the first decoded record, or else the first record of the
// primary kind.
func (r *Runner) sample(page *model.Page, decoded []*decode.Record) (Sample, bool) {
	s := Sample{Kind: r.cfg.Kind, Cursor: r.cursor}
	for _, rec := range decoded {
		if rec != nil {
			s.Record = rec
			return s, true
		}
	}

	switch r.cfg.Kind {
	case KindTransactions:
		if len(page.Transactions) > 0 {
			s.Transaction = &page.Transactions[0]
			return s, true
		}
	case KindTraces:
		if len(page.Traces) > 0 {
			s.Trace = &page.Traces[0]
			return s, true
		}
	case KindBlocks:
		if len(page.Blocks) > 0 {
			s.Block = &page.Blocks[0]
			return s, true
		}
	default:
		if r.cfg.Decoder == nil && len(page.Logs) > 0 {
			s.Log = &page.Logs[0]
			return s, true
		}
	}
	return Sample{}, false
}

func (r *Runner) resume(ctx context.Context) error {
	cp, ok, err := r.cfg.Checkpoint.Load(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if !ok || cp.NextBlock <= r.cursor {
		return nil
	}
	r.cursor = cp.NextBlock
	r.state = aggregate.FromSnapshot(cp.Totals)
	r.logger.Info("resume from checkpoint",
		zap.Uint64("next_block", cp.NextBlock),
		zap.String("updated_at", cp.UpdatedAt),
	)
	return nil
}

func (r *Runner) status() Status {
	return Status{
		Cursor:  r.cursor,
		Elapsed: r.now().Sub(r.started),
		Totals:  r.state.Snapshot(),
	}
}

func (r *Runner) finish(reason string) Summary {
	summary := Summary{
		Kind:           r.cfg.Kind,
		Reason:         reason,
		Cursor:         r.cursor,
		Elapsed:        r.now().Sub(r.started),
		Totals:         r.state.Snapshot(),
		DecodeFailures: r.failures,
		Pages:          r.pages,
	}
	r.logger.Info("scan finished", zap.String("reason", reason), zap.Uint64("cursor", r.cursor))
	r.reporter.Finish(summary)
	return summary
}

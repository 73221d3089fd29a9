// Package report renders scan observations to logs and time-series storage.
package report

import (
	"go.uber.org/zap"

	"transferScan/internal/aggregate"
	"transferScan/internal/decode"
	"transferScan/internal/model"
	"transferScan/internal/scan"
)

// LogReporter writes one structured line per observation.
type LogReporter struct {
	logger *zap.Logger
	meta   *model.TokenMeta
	tokens *decode.TokenMetaCache
}

func NewLogReporter(logger *zap.Logger) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{logger: logger}
}

// WithTokenMeta makes the summary include the total in token units.
func (r *LogReporter) WithTokenMeta(meta model.TokenMeta) *LogReporter {
	r.meta = &meta
	return r
}

// WithTokens makes transfer samples include amounts in token units for
// every token found in the cache.
func (r *LogReporter) WithTokens(tokens *decode.TokenMetaCache) *LogReporter {
	r.tokens = tokens
	return r
}

func (r *LogReporter) Start(kind scan.Kind, q model.Query) {
	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.Uint64("from", q.FromBlock),
		zap.Int("log_filters", len(q.Logs)),
		zap.String("join_mode", q.JoinMode.String()),
	}
	if q.ToBlock != nil {
		fields = append(fields, zap.Uint64("to", *q.ToBlock))
	}
	r.logger.Info("scan started", fields...)
}

func (r *LogReporter) Progress(p scan.Progress) {
	r.logger.Info("progress",
		zap.Uint64("next_block", p.Cursor),
		zap.Uint64("events", p.Totals.Events),
		zap.Uint64("logs", p.Totals.Logs),
		zap.Uint64("transactions", p.Totals.Transactions),
		zap.Uint64("traces", p.Totals.Traces),
		zap.Uint64("blocks", p.Totals.Blocks),
		zap.Float64("elapsed_seconds", p.Elapsed.Seconds()),
		zap.Float64("rate", p.Rate),
		zap.String("rate_unit", p.Kind.Unit()+"/s"),
		zap.Uint64("decode_failures", p.DecodeFailures),
	)
}

func (r *LogReporter) Sample(s scan.Sample) {
	fields := []zap.Field{zap.String("kind", string(s.Kind)), zap.Uint64("next_block", s.Cursor)}
	switch {
	case s.Record != nil:
		fields = append(fields,
			zap.String("event", s.Record.Event),
			zap.Uint64("block", s.Record.Log.BlockNumber),
			zap.String("tx_hash", s.Record.Log.TxHash.Hex()),
			zap.String("contract", s.Record.Log.Address.Hex()),
			zap.Stringers("indexed", s.Record.Indexed),
			zap.Stringers("body", s.Record.Body),
		)
		fields = append(fields, r.unitFields(s.Record)...)
	case s.Log != nil:
		fields = append(fields, zap.Any("log", s.Log))
	case s.Transaction != nil:
		fields = append(fields, zap.Any("transaction", s.Transaction))
	case s.Trace != nil:
		fields = append(fields, zap.Any("trace", s.Trace))
	case s.Block != nil:
		fields = append(fields, zap.Any("block", s.Block))
	}
	r.logger.Info("sample", fields...)
}

func (r *LogReporter) Finish(s scan.Summary) {
	fields := []zap.Field{
		zap.String("reason", s.Reason),
		zap.Uint64("next_block", s.Cursor),
		zap.Float64("elapsed_seconds", s.Elapsed.Seconds()),
		zap.Uint64("pages", s.Pages),
		zap.Uint64("events", s.Totals.Events),
		zap.Uint64("logs", s.Totals.Logs),
		zap.Uint64("transactions", s.Totals.Transactions),
		zap.Uint64("traces", s.Totals.Traces),
		zap.Uint64("blocks", s.Totals.Blocks),
		zap.Uint64("decode_failures", s.DecodeFailures),
	}
	if s.Kind == scan.KindTransfers {
		fields = append(fields, zap.String("total_value", s.Totals.TotalValueString()))
		if r.meta != nil {
			fields = append(fields,
				zap.String("total_value_units", aggregate.FormatAmount(s.Totals.TotalValue, r.meta.Decimals)),
				zap.String("symbol", r.meta.Symbol),
			)
		}
	}
	r.logger.Info("scan complete", fields...)
}

func (r *LogReporter) unitFields(rec *decode.Record) []zap.Field {
	if r.tokens == nil {
		return nil
	}
	meta, ok := r.tokens.Get(rec.Log.Address)
	if !ok {
		return nil
	}
	amount, ok := rec.Amount()
	if !ok {
		return nil
	}
	return []zap.Field{
		zap.String("value_units", aggregate.FormatAmount(amount, meta.Decimals)),
		zap.String("symbol", meta.Symbol),
	}
}

package report

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"transferScan/internal/aggregate"
	"transferScan/internal/decode"
	"transferScan/internal/model"
	"transferScan/internal/scan"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

func TestLogReporterSummaryIncludesTokenUnits(t *testing.T) {
	logger, logs := observed()
	reporter := NewLogReporter(logger).WithTokenMeta(model.TokenMeta{Decimals: 6, Symbol: "USDC"})

	reporter.Finish(scan.Summary{
		Kind:    scan.KindTransfers,
		Reason:  scan.ReasonTipReached,
		Cursor:  100,
		Elapsed: 2 * time.Second,
		Totals:  aggregate.Snapshot{Events: 1, TotalValue: big.NewInt(1500000)},
	})

	entries := logs.FilterMessage("scan complete").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "1500000", fields["total_value"])
	assert.Equal(t, "1.500000", fields["total_value_units"])
	assert.Equal(t, "USDC", fields["symbol"])
	assert.Equal(t, scan.ReasonTipReached, fields["reason"])
}

func TestLogReporterSummaryOmitsValueForOtherKinds(t *testing.T) {
	logger, logs := observed()
	NewLogReporter(logger).Finish(scan.Summary{Kind: scan.KindBlocks, Totals: aggregate.Snapshot{Blocks: 4}})

	fields := logs.FilterMessage("scan complete").All()[0].ContextMap()
	assert.NotContains(t, fields, "total_value")
	assert.Equal(t, uint64(4), fields["blocks"])
}

func TestLogReporterProgressAndSample(t *testing.T) {
	logger, logs := observed()
	reporter := NewLogReporter(logger)

	reporter.Start(scan.KindTransfers, model.Query{FromBlock: 5})
	reporter.Progress(scan.Progress{Kind: scan.KindTransfers, Cursor: 100, Rate: 2.5, Totals: aggregate.Snapshot{Events: 5}})
	reporter.Sample(scan.Sample{
		Kind:   scan.KindTransfers,
		Cursor: 100,
		Record: &decode.Record{
			Event:   "Transfer",
			Indexed: []decode.Value{decode.AddressValue(common.HexToAddress("0x01"))},
			Body:    []decode.Value{decode.UintValue(big.NewInt(500))},
		},
	})

	assert.Equal(t, 1, logs.FilterMessage("scan started").Len())
	progress := logs.FilterMessage("progress").All()
	require.Len(t, progress, 1)
	assert.Equal(t, uint64(100), progress[0].ContextMap()["next_block"])
	assert.Equal(t, "events/s", progress[0].ContextMap()["rate_unit"])

	samples := logs.FilterMessage("sample").All()
	require.Len(t, samples, 1)
	assert.Equal(t, "Transfer", samples[0].ContextMap()["event"])
}

type countingReporter struct{ starts, progress, samples, finishes int }

func (c *countingReporter) Start(scan.Kind, model.Query) { c.starts++ }
func (c *countingReporter) Progress(scan.Progress)       { c.progress++ }
func (c *countingReporter) Sample(scan.Sample)           { c.samples++ }
func (c *countingReporter) Finish(scan.Summary)          { c.finishes++ }

func TestMultiFansOut(t *testing.T) {
	a, b := &countingReporter{}, &countingReporter{}
	m := Multi(a, nil, b)

	m.Start(scan.KindTransfers, model.Query{})
	m.Progress(scan.Progress{})
	m.Progress(scan.Progress{})
	m.Sample(scan.Sample{})
	m.Finish(scan.Summary{})

	for _, c := range []*countingReporter{a, b} {
		assert.Equal(t, 1, c.starts)
		assert.Equal(t, 2, c.progress)
		assert.Equal(t, 1, c.samples)
		assert.Equal(t, 1, c.finishes)
	}
}

func TestLogReporterSampleTokenUnits(t *testing.T) {
	logger, logs := observed()
	token := common.HexToAddress("0x3c499c542cEF5E3811e1192cE70d8cC03d5c3359")
	tokens := decode.NewTokenMetaCache()
	tokens.Set(token, model.TokenMeta{Decimals: 6, Symbol: "USDC"})

	NewLogReporter(logger).WithTokens(tokens).Sample(scan.Sample{
		Kind: scan.KindTransfers,
		Record: &decode.Record{
			Event: "Transfer",
			Body:  []decode.Value{decode.UintValue(big.NewInt(2500000))},
			Log:   model.RawLog{Address: token},
		},
	})

	fields := logs.FilterMessage("sample").All()[0].ContextMap()
	assert.Equal(t, "2.500000", fields["value_units"])
	assert.Equal(t, "USDC", fields["symbol"])
}

package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"transferScan/internal/aggregate"
)

func TestStopConditions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := ContextDone(ctx)
	_, stop := done(Status{})
	assert.False(t, stop)
	cancel()
	reason, stop := done(Status{})
	assert.True(t, stop)
	assert.Equal(t, "cancelled", reason)

	budget := MaxDuration(time.Minute)
	_, stop = budget(Status{Elapsed: 30 * time.Second})
	assert.False(t, stop)
	_, stop = budget(Status{Elapsed: time.Minute})
	assert.True(t, stop)

	_, stop = MaxDuration(0)(Status{Elapsed: time.Hour})
	assert.False(t, stop)

	blocks := MaxRecords(KindBlocks, 10)
	_, stop = blocks(Status{Totals: aggregate.Snapshot{Blocks: 9, Events: 100}})
	assert.False(t, stop)
	reason, stop = blocks(Status{Totals: aggregate.Snapshot{Blocks: 10}})
	assert.True(t, stop)
	assert.Equal(t, "blocks budget reached", reason)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("")
	assert.NoError(t, err)
	assert.Equal(t, KindTransfers, kind)

	kind, err = ParseKind(" Traces ")
	assert.NoError(t, err)
	assert.Equal(t, KindTraces, kind)

	_, err = ParseKind("receipts")
	assert.Error(t, err)

	totals := aggregate.Snapshot{Events: 1, Transactions: 2, Traces: 3, Blocks: 4}
	assert.Equal(t, uint64(1), KindTransfers.Count(totals))
	assert.Equal(t, uint64(2), KindTransactions.Count(totals))
	assert.Equal(t, uint64(3), KindTraces.Count(totals))
	assert.Equal(t, uint64(4), KindBlocks.Count(totals))
}

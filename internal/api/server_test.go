package api

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transferScan/internal/aggregate"
	"transferScan/internal/model"
	"transferScan/internal/scan"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s := NewServer(":0", NewStatusReporter(), nil)
	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusFollowsScan(t *testing.T) {
	reporter := NewStatusReporter()
	h := NewServer(":0", reporter, nil).Handler()

	var idle Status
	require.NoError(t, json.Unmarshal(get(t, h, "/status").Body.Bytes(), &idle))
	assert.Equal(t, "idle", idle.State)

	reporter.Start(scan.KindTransfers, model.Query{FromBlock: 10})
	reporter.Progress(scan.Progress{
		Kind:    scan.KindTransfers,
		Cursor:  100,
		Elapsed: 2 * time.Second,
		Rate:    0.5,
		Pages:   1,
		Totals:  aggregate.Snapshot{Events: 1, Logs: 1, TotalValue: big.NewInt(500)},
	})

	rec := get(t, h, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var running Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &running))
	assert.Equal(t, "running", running.State)
	assert.Equal(t, "transfers", running.Kind)
	assert.Equal(t, uint64(10), running.FromBlock)
	assert.Equal(t, uint64(100), running.NextBlock)
	assert.Equal(t, uint64(1), running.Totals.Events)
	assert.Equal(t, "500", running.Totals.TotalValueString())

	reporter.Finish(scan.Summary{Reason: scan.ReasonTipReached, Cursor: 100, Totals: running.Totals})
	var finished Status
	require.NoError(t, json.Unmarshal(get(t, h, "/status").Body.Bytes(), &finished))
	assert.Equal(t, "finished", finished.State)
	assert.Equal(t, scan.ReasonTipReached, finished.Reason)
}

package report

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"transferScan/internal/model"
	"transferScan/internal/scan"
)

const (
	progressMeasurement = "scan_progress"
	summaryMeasurement  = "scan_summary"
)

// InfluxConfig holds InfluxDB connection settings.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxReporter writes progress and summary points to InfluxDB. Points are
// batched by the non-blocking write API and flushed on Finish.
type InfluxReporter struct {
	client influxdb2.Client
	writer api.WriteAPI
	logger *zap.Logger
	tags   map[string]string
	done   chan struct{}
}

func NewInfluxReporter(cfg InfluxConfig, logger *zap.Logger) *InfluxReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	r := &InfluxReporter{
		client: client,
		writer: client.WriteAPI(cfg.Org, cfg.Bucket),
		logger: logger,
		tags:   map[string]string{},
		done:   make(chan struct{}),
	}
	go r.drainErrors()
	return r
}

func (r *InfluxReporter) drainErrors() {
	errs := r.writer.Errors()
	for {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			r.logger.Warn("influx write failed", zap.Error(err))
		case <-r.done:
			return
		}
	}
}

func (r *InfluxReporter) Start(kind scan.Kind, _ model.Query) {
	r.tags = map[string]string{"kind": string(kind)}
}

func (r *InfluxReporter) Progress(p scan.Progress) {
	r.writer.WritePoint(progressPoint(r.tags, p, time.Now()))
}

func (r *InfluxReporter) Sample(scan.Sample) {}

func (r *InfluxReporter) Finish(s scan.Summary) {
	r.writer.WritePoint(summaryPoint(r.tags, s, time.Now()))
	r.writer.Flush()
}

// Close flushes pending points and releases the client.
func (r *InfluxReporter) Close() {
	r.writer.Flush()
	close(r.done)
	r.client.Close()
}

func progressPoint(tags map[string]string, p scan.Progress, ts time.Time) *write.Point {
	fields := map[string]interface{}{
		"next_block":      p.Cursor,
		"events":          p.Totals.Events,
		"logs":            p.Totals.Logs,
		"transactions":    p.Totals.Transactions,
		"traces":          p.Totals.Traces,
		"blocks":          p.Totals.Blocks,
		"rate":            p.Rate,
		"elapsed_seconds": p.Elapsed.Seconds(),
		"decode_failures": p.DecodeFailures,
		"total_value":     p.Totals.TotalValueString(),
	}
	return influxdb2.NewPoint(progressMeasurement, tags, fields, ts)
}

func summaryPoint(tags map[string]string, s scan.Summary, ts time.Time) *write.Point {
	withReason := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		withReason[k] = v
	}
	withReason["reason"] = s.Reason

	fields := map[string]interface{}{
		"next_block":      s.Cursor,
		"events":          s.Totals.Events,
		"logs":            s.Totals.Logs,
		"transactions":    s.Totals.Transactions,
		"traces":          s.Totals.Traces,
		"blocks":          s.Totals.Blocks,
		"pages":           s.Pages,
		"elapsed_seconds": s.Elapsed.Seconds(),
		"total_value":     s.Totals.TotalValueString(),
	}
	return influxdb2.NewPoint(summaryMeasurement, withReason, fields, ts)
}

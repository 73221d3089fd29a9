package report

import (
	"transferScan/internal/model"
	"transferScan/internal/scan"
)

type multi []scan.Reporter

// Multi fans every observation out to each non-nil reporter, in order.
func Multi(reporters ...scan.Reporter) scan.Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Start(kind scan.Kind, q model.Query) {
	for _, r := range m {
		r.Start(kind, q)
	}
}

func (m multi) Progress(p scan.Progress) {
	for _, r := range m {
		r.Progress(p)
	}
}

func (m multi) Sample(s scan.Sample) {
	for _, r := range m {
		r.Sample(s)
	}
}

func (m multi) Finish(s scan.Summary) {
	for _, r := range m {
		r.Finish(s)
	}
}

package aggregate

import (
	"math/big"

	"transferScan/internal/decode"
	"transferScan/internal/model"
)

// State holds the running totals of a scan. It is owned by a single scan
// loop; other components only ever see Snapshots.
type State struct {
	events       uint64
	traces       uint64
	transactions uint64
	logs         uint64
	blocks       uint64
	totalValue   *big.Int
}

// NewState returns an all-zero state.
func NewState() *State {
	return &State{totalValue: new(big.Int)}
}

// FromSnapshot rebuilds a state, used when resuming from a checkpoint.
func FromSnapshot(s Snapshot) *State {
	st := NewState()
	st.events = s.Events
	st.traces = s.Traces
	st.transactions = s.Transactions
	st.logs = s.Logs
	st.blocks = s.Blocks
	if s.TotalValue != nil && s.TotalValue.Sign() > 0 {
		st.totalValue.Set(s.TotalValue)
	}
	return st
}

// Fold adds one page's payload counts and the amounts of its decoded
// records. decoded may be nil or contain nil entries.
func (s *State) Fold(page *model.Page, decoded []*decode.Record) {
	if page != nil {
		s.logs += uint64(len(page.Logs))
		s.transactions += uint64(len(page.Transactions))
		s.traces += uint64(len(page.Traces))
		s.blocks += uint64(len(page.Blocks))
	}
	for _, rec := range decoded {
		if rec == nil {
			continue
		}
		s.events++
		if amount, ok := rec.Amount(); ok && amount.Sign() > 0 {
			s.totalValue.Add(s.totalValue, amount)
		}
	}
}

// Snapshot returns a deep copy of the current totals.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Events:       s.events,
		Traces:       s.traces,
		Transactions: s.transactions,
		Logs:         s.logs,
		Blocks:       s.blocks,
		TotalValue:   new(big.Int).Set(s.totalValue),
	}
}

// Snapshot is an immutable view of State.
type Snapshot struct {
	Events       uint64   `json:"events"`
	Traces       uint64   `json:"traces"`
	Transactions uint64   `json:"transactions"`
	Logs         uint64   `json:"logs"`
	Blocks       uint64   `json:"blocks"`
	TotalValue   *big.Int `json:"total_value"`
}

// Merge combines two snapshots. It is commutative and associative, so
// per-page partial results can be combined in any order.
func Merge(a, b Snapshot) Snapshot {
	total := new(big.Int)
	if a.TotalValue != nil {
		total.Add(total, a.TotalValue)
	}
	if b.TotalValue != nil {
		total.Add(total, b.TotalValue)
	}
	return Snapshot{
		Events:       a.Events + b.Events,
		Traces:       a.Traces + b.Traces,
		Transactions: a.Transactions + b.Transactions,
		Logs:         a.Logs + b.Logs,
		Blocks:       a.Blocks + b.Blocks,
		TotalValue:   total,
	}
}

// Dominates reports whether every counter and the sum in s are >= prev.
func (s Snapshot) Dominates(prev Snapshot) bool {
	return s.Events >= prev.Events &&
		s.Traces >= prev.Traces &&
		s.Transactions >= prev.Transactions &&
		s.Logs >= prev.Logs &&
		s.Blocks >= prev.Blocks &&
		valueOrZero(s.TotalValue).Cmp(valueOrZero(prev.TotalValue)) >= 0
}

// TotalValueString renders the summed value as a decimal string.
func (s Snapshot) TotalValueString() string {
	return valueOrZero(s.TotalValue).String()
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// JoinMode controls how non-log record kinds relate to matched logs.
type JoinMode int

const (
	// JoinNothing fetches transactions, traces and blocks independently of the log filters.
	JoinNothing JoinMode = iota
	// JoinAll restricts transactions, traces and blocks to those referenced by matched logs.
	JoinAll
)

func (m JoinMode) String() string {
	switch m {
	case JoinAll:
		return "join_all"
	default:
		return "join_nothing"
	}
}

// ParseJoinMode converts a config value into a JoinMode.
func ParseJoinMode(input string) (JoinMode, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "nothing", "join_nothing", "join-nothing":
		return JoinNothing, nil
	case "all", "join_all", "join-all":
		return JoinAll, nil
	default:
		return JoinNothing, fmt.Errorf("unsupported join mode: %s", input)
	}
}

// LogFilter selects logs by emitting contract and topic slots.
// An empty address list or an empty topic slot matches anything.
type LogFilter struct {
	Addresses []common.Address
	Topics    [][]common.Hash
}

// Query describes one page request. It is rewritten only by the scan loop,
// once per iteration, through WithFromBlock.
type Query struct {
	FromBlock           uint64
	ToBlock             *uint64
	Logs                []LogFilter
	IncludeTransactions bool
	IncludeTraces       bool
	Fields              FieldSelection
	JoinMode            JoinMode
}

// WithFromBlock returns a copy of the query starting at block.
func (q Query) WithFromBlock(block uint64) Query {
	q.FromBlock = block
	return q
}

// HasEndBlock reports whether an explicit end bound is configured.
func (q Query) HasEndBlock() bool {
	return q.ToBlock != nil
}

// WantsBlocks reports whether block records should be fetched.
func (q Query) WantsBlocks() bool {
	return len(q.Fields.Block) > 0
}

// WantsTransactions reports whether transaction records should be fetched.
func (q Query) WantsTransactions() bool {
	return q.IncludeTransactions || len(q.Fields.Transaction) > 0
}

// WantsTraces reports whether trace records should be fetched.
func (q Query) WantsTraces() bool {
	return q.IncludeTraces || len(q.Fields.Trace) > 0
}

// Validate checks structural constraints of the query.
func (q Query) Validate() error {
	if q.ToBlock != nil && *q.ToBlock < q.FromBlock {
		return fmt.Errorf("to block %d is before from block %d", *q.ToBlock, q.FromBlock)
	}
	for i, filter := range q.Logs {
		if len(filter.Topics) > 4 {
			return fmt.Errorf("log filter %d: at most 4 topic slots, got %d", i, len(filter.Topics))
		}
	}
	if q.JoinMode == JoinAll && len(q.Logs) == 0 && (q.WantsTransactions() || q.WantsTraces() || q.WantsBlocks()) {
		return fmt.Errorf("join_all requires at least one log filter")
	}
	return q.Fields.Validate()
}

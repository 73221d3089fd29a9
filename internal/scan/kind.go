package scan

import (
	"fmt"
	"strings"

	"transferScan/internal/aggregate"
)

// Kind names what a scan is primarily counting.
type Kind string

const (
	KindTransfers    Kind = "transfers"
	KindTransactions Kind = "transactions"
	KindTraces       Kind = "traces"
	KindBlocks       Kind = "blocks"
)

// ParseKind converts a config value into a Kind.
func ParseKind(input string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(input))) {
	case "", KindTransfers:
		return KindTransfers, nil
	case KindTransactions:
		return KindTransactions, nil
	case KindTraces:
		return KindTraces, nil
	case KindBlocks:
		return KindBlocks, nil
	default:
		return "", fmt.Errorf("unsupported scan kind: %s", input)
	}
}

// Count returns the primary counter of the kind.
func (k Kind) Count(s aggregate.Snapshot) uint64 {
	switch k {
	case KindTransactions:
		return s.Transactions
	case KindTraces:
		return s.Traces
	case KindBlocks:
		return s.Blocks
	default:
		return s.Events
	}
}

// Unit is the plural noun used in progress output.
func (k Kind) Unit() string {
	if k == KindTransfers {
		return "events"
	}
	return string(k)
}

package model

import (
	"fmt"
	"strings"
)

// Field names accepted in a FieldSelection.
const (
	BlockFieldNumber    = "number"
	BlockFieldHash      = "hash"
	BlockFieldTimestamp = "timestamp"
	BlockFieldTxCount   = "transaction_count"

	LogFieldBlockNumber     = "block_number"
	LogFieldTransactionHash = "transaction_hash"
	LogFieldLogIndex        = "log_index"
	LogFieldAddress         = "address"
	LogFieldData            = "data"
	LogFieldTopic0          = "topic0"
	LogFieldTopic1          = "topic1"
	LogFieldTopic2          = "topic2"
	LogFieldTopic3          = "topic3"

	TransactionFieldBlockNumber = "block_number"
	TransactionFieldHash        = "hash"
	TransactionFieldFrom        = "from"
	TransactionFieldTo          = "to"
	TransactionFieldValue       = "value"

	TraceFieldBlockNumber     = "block_number"
	TraceFieldTransactionHash = "transaction_hash"
	TraceFieldType            = "type"
	TraceFieldFrom            = "from"
	TraceFieldTo              = "to"
	TraceFieldValue           = "value"
)

var (
	blockFields = []string{BlockFieldNumber, BlockFieldHash, BlockFieldTimestamp, BlockFieldTxCount}
	logFields   = []string{
		LogFieldBlockNumber, LogFieldTransactionHash, LogFieldLogIndex, LogFieldAddress, LogFieldData,
		LogFieldTopic0, LogFieldTopic1, LogFieldTopic2, LogFieldTopic3,
	}
	transactionFields = []string{
		TransactionFieldBlockNumber, TransactionFieldHash, TransactionFieldFrom, TransactionFieldTo, TransactionFieldValue,
	}
	traceFields = []string{
		TraceFieldBlockNumber, TraceFieldTransactionHash, TraceFieldType, TraceFieldFrom, TraceFieldTo, TraceFieldValue,
	}
)

// FieldSelection lists the fields to return per record kind.
type FieldSelection struct {
	Block       []string
	Log         []string
	Transaction []string
	Trace       []string
}

// Validate rejects unknown field names.
func (fs FieldSelection) Validate() error {
	checks := []struct {
		kind    string
		got     []string
		allowed []string
	}{
		{"block", fs.Block, blockFields},
		{"log", fs.Log, logFields},
		{"transaction", fs.Transaction, transactionFields},
		{"trace", fs.Trace, traceFields},
	}
	for _, check := range checks {
		for _, name := range check.got {
			if !contains(check.allowed, name) {
				return fmt.Errorf("unknown %s field: %s", check.kind, name)
			}
		}
	}
	return nil
}

// AllBlockFields returns every block field name.
func AllBlockFields() []string {
	return append([]string(nil), blockFields...)
}

// NormalizeFields lowercases and trims field names, dropping empties.
func NormalizeFields(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	return out
}

func contains(items []string, item string) bool {
	for _, candidate := range items {
		if candidate == item {
			return true
		}
	}
	return false
}

type fieldSet map[string]struct{}

// newFieldSet returns nil for an empty selection, meaning "everything".
func newFieldSet(names []string) fieldSet {
	if len(names) == 0 {
		return nil
	}
	set := make(fieldSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func (s fieldSet) has(name string) bool {
	if s == nil {
		return true
	}
	_, ok := s[name]
	return ok
}

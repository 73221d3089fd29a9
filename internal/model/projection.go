package model

import "github.com/ethereum/go-ethereum/common"

// ProjectLog clears fields not present in the log selection.
func (fs FieldSelection) ProjectLog(l RawLog) RawLog {
	set := newFieldSet(fs.Log)
	if set == nil {
		return l
	}
	out := RawLog{}
	if set.has(LogFieldBlockNumber) {
		out.BlockNumber = l.BlockNumber
	}
	if set.has(LogFieldTransactionHash) {
		out.TxHash = l.TxHash
	}
	if set.has(LogFieldLogIndex) {
		out.LogIndex = l.LogIndex
	}
	if set.has(LogFieldAddress) {
		out.Address = l.Address
	}
	if set.has(LogFieldData) {
		out.Data = l.Data
	}

	// Topics stay positional: keep a prefix up to the last selected slot.
	topicNames := []string{LogFieldTopic0, LogFieldTopic1, LogFieldTopic2, LogFieldTopic3}
	last := -1
	for i := range l.Topics {
		if i < len(topicNames) && set.has(topicNames[i]) {
			last = i
		}
	}
	if last >= 0 {
		out.Topics = make([]common.Hash, last+1)
		for i := 0; i <= last; i++ {
			if set.has(topicNames[i]) {
				out.Topics[i] = l.Topics[i]
			}
		}
	}
	return out
}

// ProjectTransaction clears fields not present in the transaction selection.
func (fs FieldSelection) ProjectTransaction(tx Transaction) Transaction {
	set := newFieldSet(fs.Transaction)
	if set == nil {
		return tx
	}
	out := Transaction{}
	if set.has(TransactionFieldBlockNumber) {
		out.BlockNumber = tx.BlockNumber
	}
	if set.has(TransactionFieldHash) {
		out.Hash = tx.Hash
	}
	if set.has(TransactionFieldFrom) {
		out.From = tx.From
	}
	if set.has(TransactionFieldTo) {
		out.To = tx.To
	}
	if set.has(TransactionFieldValue) {
		out.Value = tx.Value
	}
	return out
}

// ProjectTrace clears fields not present in the trace selection.
func (fs FieldSelection) ProjectTrace(tr Trace) Trace {
	set := newFieldSet(fs.Trace)
	if set == nil {
		return tr
	}
	out := Trace{}
	if set.has(TraceFieldBlockNumber) {
		out.BlockNumber = tr.BlockNumber
	}
	if set.has(TraceFieldTransactionHash) {
		out.TxHash = tr.TxHash
	}
	if set.has(TraceFieldType) {
		out.Type = tr.Type
	}
	if set.has(TraceFieldFrom) {
		out.From = tr.From
	}
	if set.has(TraceFieldTo) {
		out.To = tr.To
	}
	if set.has(TraceFieldValue) {
		out.Value = tr.Value
	}
	return out
}

// ProjectBlock clears fields not present in the block selection.
func (fs FieldSelection) ProjectBlock(b Block) Block {
	set := newFieldSet(fs.Block)
	if set == nil {
		return b
	}
	out := Block{}
	if set.has(BlockFieldNumber) {
		out.Number = b.Number
	}
	if set.has(BlockFieldHash) {
		out.Hash = b.Hash
	}
	if set.has(BlockFieldTimestamp) {
		out.Timestamp = b.Timestamp
	}
	if set.has(BlockFieldTxCount) {
		out.TxCount = b.TxCount
	}
	return out
}

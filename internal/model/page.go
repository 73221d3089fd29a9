package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Page is one bounded batch of results plus the cursor to resume from.
// NextBlock is zero when the source failed to report one.
type Page struct {
	NextBlock    uint64
	Logs         []RawLog
	Transactions []Transaction
	Traces       []Trace
	Blocks       []Block
}

// Empty reports whether the page carries no records of any kind.
func (p *Page) Empty() bool {
	return len(p.Logs) == 0 && len(p.Transactions) == 0 && len(p.Traces) == 0 && len(p.Blocks) == 0
}

// RawLog is an undecoded log entry.
type RawLog struct {
	BlockNumber uint64         `json:"block_number"`
	TxHash      common.Hash    `json:"tx_hash"`
	LogIndex    uint64         `json:"log_index"`
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
}

// Topic0 returns the event signature hash, if present.
func (l RawLog) Topic0() (common.Hash, bool) {
	if len(l.Topics) == 0 {
		return common.Hash{}, false
	}
	return l.Topics[0], true
}

// Transaction is a transaction record.
type Transaction struct {
	BlockNumber uint64          `json:"block_number"`
	Hash        common.Hash     `json:"hash"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to,omitempty"`
	Value       *big.Int        `json:"value,omitempty"`
}

// Trace is a call trace record.
type Trace struct {
	BlockNumber uint64          `json:"block_number"`
	TxHash      common.Hash     `json:"transaction_hash"`
	Type        string          `json:"type"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to,omitempty"`
	Value       *big.Int        `json:"value,omitempty"`
}

// Block is a block header record.
type Block struct {
	Number    uint64      `json:"number"`
	Hash      common.Hash `json:"hash"`
	Timestamp uint64      `json:"timestamp"`
	TxCount   int         `json:"transaction_count"`
}

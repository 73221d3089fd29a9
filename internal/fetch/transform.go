package fetch

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"transferScan/internal/model"
)

func rawLogFromChain(log types.Log) model.RawLog {
	topics := make([]common.Hash, len(log.Topics))
	copy(topics, log.Topics)
	return model.RawLog{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    uint64(log.Index),
		Address:     log.Address,
		Topics:      topics,
		Data:        log.Data,
	}
}

func transactionFromChain(block *types.Block, tx *types.Transaction, signer types.Signer) model.Transaction {
	out := model.Transaction{
		BlockNumber: block.NumberU64(),
		Hash:        tx.Hash(),
		To:          tx.To(),
		Value:       tx.Value(),
	}
	if signer != nil {
		if from, err := types.Sender(signer, tx); err == nil {
			out.From = from
		}
	}
	return out
}

func blockFromChain(block *types.Block) model.Block {
	return model.Block{
		Number:    block.NumberU64(),
		Hash:      block.Hash(),
		Timestamp: block.Time(),
		TxCount:   len(block.Transactions()),
	}
}

package fetch

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"transferScan/internal/model"
)

// ChainReader is the subset of the chain client used to serve pages.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topics [][]common.Hash) ([]types.Log, error)
	BlockByNumber(ctx context.Context, number uint64) (*types.Block, error)
	TraceBlock(ctx context.Context, number uint64) ([]model.Trace, error)
}

// RPCFetcher serves pages from an Ethereum JSON-RPC node.
type RPCFetcher struct {
	chain     ChainReader
	batchSize uint64
	logger    *zap.Logger

	mu     sync.Mutex
	signer types.Signer
}

func NewRPCFetcher(chain ChainReader, batchSize uint64, logger *zap.Logger) *RPCFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPCFetcher{chain: chain, batchSize: batchSize, logger: logger}
}

// Fetch serves blocks [from, min(from+batch-1, head, to-1)]. The bound block
// itself is never served inside a window: a page reaching it reports a next
// block past the bound so the caller stops without losing a partial window.
func (f *RPCFetcher) Fetch(ctx context.Context, q model.Query) (*model.Page, error) {
	if f.chain == nil {
		return nil, fmt.Errorf("chain client is nil")
	}

	head, err := f.chain.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest block: %w", err)
	}
	if q.FromBlock > head {
		return nil, ErrExhausted
	}

	limit := head
	if q.ToBlock != nil && *q.ToBlock < math.MaxUint64 {
		bound := *q.ToBlock
		if q.FromBlock >= bound {
			return &model.Page{NextBlock: bound + 1}, nil
		}
		if bound-1 < limit {
			limit = bound - 1
		}
	}

	window, ok, err := Window(q.FromBlock, f.batchSize, limit)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrExhausted
	}

	page := &model.Page{NextBlock: window.To + 1}

	logs, err := f.fetchLogs(ctx, window, q.Logs)
	if err != nil {
		return nil, err
	}
	for _, log := range logs {
		page.Logs = append(page.Logs, q.Fields.ProjectLog(log))
	}

	if !q.WantsBlocks() && !q.WantsTransactions() && !q.WantsTraces() {
		return page, nil
	}

	blocks, txFilter := f.correlate(window, logs, q.JoinMode)
	if err := f.fetchBlocks(ctx, q, blocks, txFilter, page); err != nil {
		return nil, err
	}
	if q.WantsTraces() {
		if err := f.fetchTraces(ctx, q, blocks, txFilter, page); err != nil {
			return nil, err
		}
	}

	f.logger.Debug("page fetched",
		zap.Uint64("from", window.From),
		zap.Uint64("to", window.To),
		zap.Int("logs", len(page.Logs)),
		zap.Int("transactions", len(page.Transactions)),
		zap.Int("traces", len(page.Traces)),
		zap.Int("blocks", len(page.Blocks)),
	)
	return page, nil
}

// fetchLogs runs one eth_getLogs per filter and merges the results in
// (block, index) order without duplicates.
func (f *RPCFetcher) fetchLogs(ctx context.Context, window BlockRange, filters []model.LogFilter) ([]model.RawLog, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	type logKey struct {
		tx    common.Hash
		index uint64
	}
	seen := make(map[logKey]struct{})
	var out []model.RawLog
	for i, filter := range filters {
		logs, err := f.chain.FilterLogs(ctx, window.From, window.To, filter.Addresses, filter.Topics)
		if err != nil {
			return nil, fmt.Errorf("filter logs %d-%d (filter %d): %w", window.From, window.To, i, err)
		}
		for _, log := range logs {
			if log.Removed {
				continue
			}
			key := logKey{tx: log.TxHash, index: uint64(log.Index)}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, rawLogFromChain(log))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].LogIndex < out[j].LogIndex
	})
	return out, nil
}

// correlate returns the blocks to load and, for JoinAll, the transaction
// hashes records must belong to. A nil filter accepts every transaction.
func (f *RPCFetcher) correlate(window BlockRange, logs []model.RawLog, mode model.JoinMode) ([]uint64, map[common.Hash]struct{}) {
	if mode != model.JoinAll {
		return window.Blocks(), nil
	}

	txs := make(map[common.Hash]struct{}, len(logs))
	var blocks []uint64
	for _, log := range logs {
		txs[log.TxHash] = struct{}{}
		if len(blocks) == 0 || blocks[len(blocks)-1] != log.BlockNumber {
			blocks = append(blocks, log.BlockNumber)
		}
	}
	return blocks, txs
}

func (f *RPCFetcher) fetchBlocks(ctx context.Context, q model.Query, numbers []uint64, txFilter map[common.Hash]struct{}, page *model.Page) error {
	if !q.WantsBlocks() && !q.WantsTransactions() {
		return nil
	}

	var signer types.Signer
	if q.WantsTransactions() {
		var err error
		signer, err = f.loadSigner(ctx)
		if err != nil {
			return err
		}
	}

	for _, number := range numbers {
		block, err := f.chain.BlockByNumber(ctx, number)
		if err != nil {
			return fmt.Errorf("get block %d: %w", number, err)
		}
		if q.WantsBlocks() {
			page.Blocks = append(page.Blocks, q.Fields.ProjectBlock(blockFromChain(block)))
		}
		if !q.WantsTransactions() {
			continue
		}
		for _, tx := range block.Transactions() {
			if txFilter != nil {
				if _, ok := txFilter[tx.Hash()]; !ok {
					continue
				}
			}
			page.Transactions = append(page.Transactions, q.Fields.ProjectTransaction(transactionFromChain(block, tx, signer)))
		}
	}
	return nil
}

func (f *RPCFetcher) fetchTraces(ctx context.Context, q model.Query, numbers []uint64, txFilter map[common.Hash]struct{}, page *model.Page) error {
	for _, number := range numbers {
		traces, err := f.chain.TraceBlock(ctx, number)
		if err != nil {
			return fmt.Errorf("trace block %d: %w", number, err)
		}
		for _, trace := range traces {
			if txFilter != nil {
				if _, ok := txFilter[trace.TxHash]; !ok {
					continue
				}
			}
			page.Traces = append(page.Traces, q.Fields.ProjectTrace(trace))
		}
	}
	return nil
}

func (f *RPCFetcher) loadSigner(ctx context.Context) (types.Signer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.signer != nil {
		return f.signer, nil
	}
	chainID, err := f.chain.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	f.signer = types.LatestSignerForChainID(chainID)
	return f.signer, nil
}

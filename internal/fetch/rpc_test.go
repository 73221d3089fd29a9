package fetch

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transferScan/internal/model"
)

type logCall struct {
	from, to uint64
}

type fakeChain struct {
	head       uint64
	chainID    *big.Int
	logs       [][]types.Log
	blocks     map[uint64]*types.Block
	traces     map[uint64][]model.Trace
	logCalls   []logCall
	blockCalls []uint64
	traceCalls []uint64
	headErr    error
}

func (c *fakeChain) ChainID(context.Context) (*big.Int, error) {
	return c.chainID, nil
}

func (c *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	return c.head, c.headErr
}

func (c *fakeChain) FilterLogs(_ context.Context, from, to uint64, _ []common.Address, _ [][]common.Hash) ([]types.Log, error) {
	idx := len(c.logCalls)
	c.logCalls = append(c.logCalls, logCall{from: from, to: to})
	if idx < len(c.logs) {
		return c.logs[idx], nil
	}
	return nil, nil
}

func (c *fakeChain) BlockByNumber(_ context.Context, number uint64) (*types.Block, error) {
	c.blockCalls = append(c.blockCalls, number)
	if block, ok := c.blocks[number]; ok {
		return block, nil
	}
	return types.NewBlockWithHeader(&types.Header{Number: new(big.Int).SetUint64(number)}), nil
}

func (c *fakeChain) TraceBlock(_ context.Context, number uint64) ([]model.Trace, error) {
	c.traceCalls = append(c.traceCalls, number)
	return c.traces[number], nil
}

func transferFilter() []model.LogFilter {
	return []model.LogFilter{{
		Addresses: []common.Address{common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")},
		Topics:    [][]common.Hash{{common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")}},
	}}
}

func TestRPCFetcherExhaustedPastHead(t *testing.T) {
	chain := &fakeChain{head: 99}
	f := NewRPCFetcher(chain, 10, nil)

	_, err := f.Fetch(context.Background(), model.Query{FromBlock: 100, Logs: transferFilter()})
	require.ErrorIs(t, err, ErrExhausted)
	assert.Empty(t, chain.logCalls)
}

func TestRPCFetcherWindowAndNextBlock(t *testing.T) {
	chain := &fakeChain{head: 1000}
	f := NewRPCFetcher(chain, 10, nil)

	page, err := f.Fetch(context.Background(), model.Query{FromBlock: 100, Logs: transferFilter()})
	require.NoError(t, err)
	assert.Equal(t, uint64(110), page.NextBlock)
	assert.True(t, page.Empty())
	assert.Equal(t, []logCall{{from: 100, to: 109}}, chain.logCalls)

	chain.head = 103
	page, err = f.Fetch(context.Background(), model.Query{FromBlock: 100, Logs: transferFilter()})
	require.NoError(t, err)
	assert.Equal(t, uint64(104), page.NextBlock)
}

func TestRPCFetcherClampsBeforeBound(t *testing.T) {
	chain := &fakeChain{head: 1000}
	f := NewRPCFetcher(chain, 10, nil)
	bound := uint64(105)

	page, err := f.Fetch(context.Background(), model.Query{FromBlock: 100, ToBlock: &bound, Logs: transferFilter()})
	require.NoError(t, err)
	assert.Equal(t, uint64(105), page.NextBlock)
	assert.Equal(t, []logCall{{from: 100, to: 104}}, chain.logCalls)

	page, err = f.Fetch(context.Background(), model.Query{FromBlock: 105, ToBlock: &bound, Logs: transferFilter()})
	require.NoError(t, err)
	assert.Equal(t, uint64(106), page.NextBlock)
	assert.True(t, page.Empty())
	assert.Len(t, chain.logCalls, 1)
}

func TestRPCFetcherMergesFilters(t *testing.T) {
	txA := common.HexToHash("0x01")
	txB := common.HexToHash("0x02")
	chain := &fakeChain{
		head: 1000,
		logs: [][]types.Log{
			{
				{BlockNumber: 12, TxHash: txB, Index: 4},
				{BlockNumber: 10, TxHash: txA, Index: 1},
			},
			{
				{BlockNumber: 10, TxHash: txA, Index: 1},
				{BlockNumber: 10, TxHash: txA, Index: 0},
				{BlockNumber: 11, TxHash: txA, Index: 2, Removed: true},
			},
		},
	}
	f := NewRPCFetcher(chain, 10, nil)
	filters := append(transferFilter(), model.LogFilter{})

	page, err := f.Fetch(context.Background(), model.Query{FromBlock: 10, Logs: filters})
	require.NoError(t, err)
	require.Len(t, page.Logs, 3)
	assert.Equal(t, uint64(0), page.Logs[0].LogIndex)
	assert.Equal(t, uint64(1), page.Logs[1].LogIndex)
	assert.Equal(t, uint64(12), page.Logs[2].BlockNumber)
}

func TestRPCFetcherJoinAllRestrictsToMatchedTransactions(t *testing.T) {
	chainID := big.NewInt(1)
	signer := types.LatestSignerForChainID(chainID)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := crypto.PubkeyToAddress(key.PublicKey)

	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	var txs []*types.Transaction
	for nonce := uint64(0); nonce < 2; nonce++ {
		tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &to,
			Value:    big.NewInt(int64(nonce + 1)),
			Gas:      21000,
			GasPrice: big.NewInt(1),
		}), signer, key)
		require.NoError(t, err)
		txs = append(txs, tx)
	}
	block := types.NewBlockWithHeader(&types.Header{Number: big.NewInt(11)}).WithBody(txs, nil)

	chain := &fakeChain{
		head:    1000,
		chainID: chainID,
		logs:    [][]types.Log{{{BlockNumber: 11, TxHash: txs[1].Hash(), Index: 0}}},
		blocks:  map[uint64]*types.Block{11: block},
		traces: map[uint64][]model.Trace{11: {
			{BlockNumber: 11, TxHash: txs[0].Hash(), Type: "call"},
			{BlockNumber: 11, TxHash: txs[1].Hash(), Type: "call"},
		}},
	}
	f := NewRPCFetcher(chain, 10, nil)

	page, err := f.Fetch(context.Background(), model.Query{
		FromBlock:           10,
		Logs:                transferFilter(),
		IncludeTransactions: true,
		IncludeTraces:       true,
		JoinMode:            model.JoinAll,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{11}, chain.blockCalls)
	assert.Equal(t, []uint64{11}, chain.traceCalls)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, txs[1].Hash(), page.Transactions[0].Hash)
	assert.Equal(t, sender, page.Transactions[0].From)
	assert.Equal(t, big.NewInt(2), page.Transactions[0].Value)
	require.Len(t, page.Traces, 1)
	assert.Equal(t, txs[1].Hash(), page.Traces[0].TxHash)
}

func TestRPCFetcherJoinNothingLoadsWholeWindow(t *testing.T) {
	chain := &fakeChain{head: 1000, chainID: big.NewInt(1)}
	f := NewRPCFetcher(chain, 3, nil)

	page, err := f.Fetch(context.Background(), model.Query{
		FromBlock: 20,
		Fields:    model.FieldSelection{Block: []string{model.BlockFieldNumber}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{20, 21, 22}, chain.blockCalls)
	require.Len(t, page.Blocks, 3)
	assert.Equal(t, uint64(22), page.Blocks[2].Number)
	assert.Empty(t, chain.logCalls)
}

func TestRPCFetcherProjectsLogs(t *testing.T) {
	chain := &fakeChain{
		head: 1000,
		logs: [][]types.Log{{{
			BlockNumber: 10,
			TxHash:      common.HexToHash("0x01"),
			Address:     common.HexToAddress("0x02"),
			Topics:      []common.Hash{common.HexToHash("0xaa"), common.HexToHash("0xbb")},
			Data:        []byte{1, 2},
		}}},
	}
	f := NewRPCFetcher(chain, 10, nil)

	page, err := f.Fetch(context.Background(), model.Query{
		FromBlock: 10,
		Logs:      transferFilter(),
		Fields:    model.FieldSelection{Log: []string{model.LogFieldBlockNumber, model.LogFieldTopic0}},
	})
	require.NoError(t, err)
	require.Len(t, page.Logs, 1)
	assert.Equal(t, uint64(10), page.Logs[0].BlockNumber)
	assert.Equal(t, []common.Hash{common.HexToHash("0xaa")}, page.Logs[0].Topics)
	assert.Equal(t, common.Address{}, page.Logs[0].Address)
	assert.Nil(t, page.Logs[0].Data)
}

func TestRPCFetcherHeadError(t *testing.T) {
	chain := &fakeChain{headErr: errors.New("boom")}
	f := NewRPCFetcher(chain, 10, nil)

	_, err := f.Fetch(context.Background(), model.Query{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExhausted)
}

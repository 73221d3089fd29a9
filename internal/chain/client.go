package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"transferScan/internal/model"
)

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// BlockByNumber returns the block with its transactions.
func (c *Client) BlockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	return c.ethClient.BlockByNumber(ctx, new(big.Int).SetUint64(number))
}

// FilterLogs returns logs in the inclusive range matching addresses and
// positional topic slots.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topics [][]common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
		Topics:    topics,
	}
	return c.ethClient.FilterLogs(ctx, query)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

type traceAction struct {
	CallType string          `json:"callType"`
	From     *common.Address `json:"from"`
	To       *common.Address `json:"to"`
	Value    *hexutil.Big    `json:"value"`
}

type traceEntry struct {
	Action          traceAction  `json:"action"`
	BlockNumber     uint64       `json:"blockNumber"`
	TransactionHash *common.Hash `json:"transactionHash"`
	Type            string       `json:"type"`
}

// TraceBlock returns the call traces of a block using the trace_block
// method (Erigon, Nethermind, Reth, OpenEthereum).
func (c *Client) TraceBlock(ctx context.Context, number uint64) ([]model.Trace, error) {
	var entries []traceEntry
	if err := c.rpcClient.CallContext(ctx, &entries, "trace_block", hexutil.EncodeUint64(number)); err != nil {
		return nil, fmt.Errorf("trace_block %d: %w", number, err)
	}

	traces := make([]model.Trace, 0, len(entries))
	for _, entry := range entries {
		trace := model.Trace{
			BlockNumber: entry.BlockNumber,
			Type:        entry.Type,
			To:          entry.Action.To,
		}
		if entry.Action.CallType != "" {
			trace.Type = strings.ToLower(entry.Action.CallType)
		}
		if entry.TransactionHash != nil {
			trace.TxHash = *entry.TransactionHash
		}
		if entry.Action.From != nil {
			trace.From = *entry.Action.From
		}
		if entry.Action.Value != nil {
			trace.Value = entry.Action.Value.ToInt()
		}
		traces = append(traces, trace)
	}
	return traces, nil
}

// Package chaintest provides an in-memory chain for tests.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolDataFetcher/internal/model"
)

// Chain serves block timestamps, logs and eth_call results from memory.
// Block numbers index Timestamps; the last entry is the latest block.
type Chain struct {
	Timestamps []uint64
	Logs       []types.Log

	// CallFn answers CallContract; nil fails every call.
	CallFn func(msg ethereum.CallMsg) ([]byte, error)

	// FailBlocks makes BlockTimestamp fail for the listed heights.
	FailBlocks map[uint64]bool
	// FailLatest makes LatestBlock fail.
	FailLatest bool
	// BlockDelay is applied to every BlockTimestamp call.
	BlockDelay time.Duration
	// BlockGate, when set, blocks BlockTimestamp until it is closed.
	BlockGate chan struct{}

	blockCalls  atomic.Int64
	latestCalls atomic.Int64

	mu      sync.Mutex
	filters []Filter
	calls   []ethereum.CallMsg
}

// Filter records one FilterLogs invocation.
type Filter struct {
	From      uint64
	To        uint64
	Addresses []common.Address
	Topic0    []common.Hash
}

// NewLinear builds a chain whose blocks 0..latest are spaced interval seconds
// apart starting at genesis.
func NewLinear(genesis, interval, latest uint64) *Chain {
	ts := make([]uint64, latest+1)
	for i := range ts {
		ts[i] = genesis + uint64(i)*interval
	}
	return &Chain{Timestamps: ts}
}

func (c *Chain) LatestBlock(ctx context.Context) (model.BlockHeader, error) {
	c.latestCalls.Add(1)
	if c.FailLatest || len(c.Timestamps) == 0 {
		return model.BlockHeader{}, fmt.Errorf("%w: latest block unavailable", model.ErrChainRead)
	}
	latest := uint64(len(c.Timestamps) - 1)
	return model.BlockHeader{Number: latest, Timestamp: c.Timestamps[latest]}, nil
}

func (c *Chain) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.blockCalls.Add(1)
	if c.BlockGate != nil {
		select {
		case <-c.BlockGate:
		case <-ctx.Done():
			return 0, fmt.Errorf("%w: %w", model.ErrChainRead, ctx.Err())
		}
	}
	if c.BlockDelay > 0 {
		time.Sleep(c.BlockDelay)
	}
	if c.FailBlocks[number] {
		return 0, fmt.Errorf("%w: block %d failed", model.ErrChainRead, number)
	}
	if number >= uint64(len(c.Timestamps)) {
		return 0, fmt.Errorf("%w: block %d not found", model.ErrChainRead, number)
	}
	return c.Timestamps[number], nil
}

func (c *Chain) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	c.mu.Lock()
	c.filters = append(c.filters, Filter{From: fromBlock, To: toBlock, Addresses: addresses, Topic0: topic0})
	c.mu.Unlock()

	out := make([]types.Log, 0, len(c.Logs))
	for _, log := range c.Logs {
		if log.BlockNumber < fromBlock || log.BlockNumber > toBlock {
			continue
		}
		if len(addresses) > 0 && !containsAddress(addresses, log.Address) {
			continue
		}
		if len(topic0) > 0 && (len(log.Topics) == 0 || !containsHash(topic0, log.Topics[0])) {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (c *Chain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	c.mu.Lock()
	c.calls = append(c.calls, msg)
	c.mu.Unlock()
	if c.CallFn == nil {
		return nil, fmt.Errorf("%w: eth_call not supported", model.ErrChainRead)
	}
	out, err := c.CallFn(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: eth_call: %w", model.ErrChainRead, err)
	}
	return out, nil
}

// BlockCalls returns the number of BlockTimestamp calls served.
func (c *Chain) BlockCalls() int64 {
	return c.blockCalls.Load()
}

// LatestCalls returns the number of LatestBlock calls served.
func (c *Chain) LatestCalls() int64 {
	return c.latestCalls.Load()
}

// Filters returns the FilterLogs invocations seen so far.
func (c *Chain) Filters() []Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Filter(nil), c.filters...)
}

// Calls returns the CallContract messages seen so far.
func (c *Chain) Calls() []ethereum.CallMsg {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ethereum.CallMsg(nil), c.calls...)
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, item := range list {
		if item == addr {
			return true
		}
	}
	return false
}

func containsHash(list []common.Hash, hash common.Hash) bool {
	for _, item := range list {
		if item == hash {
			return true
		}
	}
	return false
}

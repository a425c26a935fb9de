package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"poolDataFetcher/internal/model"
)

// Options controls per-call policy of the client. Zero values disable the
// corresponding policy.
type Options struct {
	CallTimeout  time.Duration
	RateLimit    float64
	RateBurst    int
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *zap.Logger
}

// Client wraps go-ethereum RPC and provides the chain reads the fetcher needs.
// Every failure is reported as model.ErrChainRead.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	opts    Options
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, opts Options) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", model.ErrChainRead, rpcURL, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		opts:      opts,
		limiter:   limiter,
		logger:    logger,
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// LatestBlock returns the number and timestamp of the latest block.
func (c *Client) LatestBlock(ctx context.Context) (model.BlockHeader, error) {
	var header *types.Header
	err := c.do(ctx, "latest block", func(ctx context.Context) error {
		var err error
		header, err = c.ethClient.HeaderByNumber(ctx, nil)
		return err
	})
	if err != nil {
		return model.BlockHeader{}, err
	}
	if header == nil || header.Number == nil {
		return model.BlockHeader{}, fmt.Errorf("%w: latest block has no number", model.ErrChainRead)
	}
	if !header.Number.IsUint64() {
		return model.BlockHeader{}, fmt.Errorf("%w: latest block number %s out of range", model.ErrChainRead, header.Number)
	}
	return model.BlockHeader{Number: header.Number.Uint64(), Timestamp: header.Time}, nil
}

// BlockTimestamp returns the timestamp of the block at the given height.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	var header *types.Header
	err := c.do(ctx, fmt.Sprintf("block %d", number), func(ctx context.Context) error {
		var err error
		header, err = c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		return err
	})
	if err != nil {
		return 0, err
	}
	if header == nil {
		return 0, fmt.Errorf("%w: block %d not found", model.ErrChainRead, number)
	}
	return header.Time, nil
}

// FilterLogs returns logs in the given range for addresses and topic0 filters.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}

	var logs []types.Log
	err := c.do(ctx, "filter logs", func(ctx context.Context) error {
		var err error
		logs, err = c.ethClient.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := c.do(ctx, "eth_call", func(ctx context.Context) error {
		var err error
		out, err = c.ethClient.CallContract(ctx, msg, blockNumber)
		return err
	})
	return out, err
}

func (c *Client) do(ctx context.Context, op string, fn func(context.Context) error) error {
	err := withRetry(ctx, c.opts.MaxRetries, c.opts.RetryBackoff, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		callCtx := ctx
		if c.opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.opts.CallTimeout)
			defer cancel()
		}

		err := fn(callCtx)
		if err != nil && c.opts.MaxRetries > 0 {
			c.logger.Warn("rpc call failed", zap.String("op", op), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", model.ErrChainRead, op, err)
	}
	return nil
}

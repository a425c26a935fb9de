// Package aggregate fetches pool logs over a block range and turns them into
// an ordered, digest-stamped event feed.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poolDataFetcher/internal/dex"
	"poolDataFetcher/internal/model"
)

// LogFilterer runs eth_getLogs style queries.
type LogFilterer interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Decoder turns raw logs into typed events.
type Decoder interface {
	Decode(log types.Log) (dex.DecodedLog, error)
}

// PoolResolver maps token pairs to pool addresses, index-aligned with pairs.
type PoolResolver interface {
	PoolAddresses(ctx context.Context, pairs []model.TokenPair) ([]common.Address, error)
}

// Config controls aggregation behavior.
type Config struct {
	// Factory is the address PoolCreated logs are read from.
	Factory common.Address
	// Concurrency bounds the block timestamp reads in flight.
	Concurrency int
	// LogBatchSize splits the getLogs range into chunks when > 0.
	LogBatchSize uint64
}

// Aggregator fetches, decodes and enriches pool events.
type Aggregator struct {
	cfg     Config
	logs    LogFilterer
	pools   PoolResolver
	decoder Decoder
	cache   *BlockTimestampCache
	logger  *zap.Logger
}

func NewAggregator(
	cfg Config,
	logs LogFilterer,
	pools PoolResolver,
	decoder Decoder,
	cache *BlockTimestampCache,
	logger *zap.Logger,
) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Factory == (common.Address{}) {
		cfg.Factory = dex.DefaultFactoryAddress
	}
	return &Aggregator{
		cfg:     cfg,
		logs:    logs,
		pools:   pools,
		decoder: decoder,
		cache:   cache,
		logger:  logger,
	}
}

// FetchByTokenPairs resolves each pair to its pool and aggregates the pools'
// events over [from, to]. Pairs without a deployed pool are skipped.
func (a *Aggregator) FetchByTokenPairs(ctx context.Context, pairs []model.TokenPair, from, to uint64) (model.ResultSet, error) {
	if to < from {
		return model.ResultSet{}, fmt.Errorf("%w: to block %d is before from block %d", model.ErrInvalidRange, to, from)
	}
	if len(pairs) == 0 {
		return emptyResultSet()
	}
	if a.pools == nil {
		return model.ResultSet{}, fmt.Errorf("%w: pool resolver is nil", model.ErrInvalidInput)
	}

	resolved, err := a.pools.PoolAddresses(ctx, pairs)
	if err != nil {
		return model.ResultSet{}, err
	}

	pools := make([]common.Address, 0, len(resolved))
	for i, pool := range resolved {
		if pool == (common.Address{}) {
			a.logger.Warn("no pool for pair",
				zap.String("token0", pairs[i].Token0.Hex()),
				zap.String("token1", pairs[i].Token1.Hex()),
				zap.Uint32("fee", pairs[i].Fee))
			continue
		}
		pools = append(pools, pool)
	}

	return a.FetchByPoolAddresses(ctx, pools, from, to)
}

// FetchByPoolAddresses aggregates Swap, Mint, Burn and Collect events emitted
// by pools in [from, to]. Records keep the provider's log order.
func (a *Aggregator) FetchByPoolAddresses(ctx context.Context, pools []common.Address, from, to uint64) (model.ResultSet, error) {
	if to < from {
		return model.ResultSet{}, fmt.Errorf("%w: to block %d is before from block %d", model.ErrInvalidRange, to, from)
	}
	// An empty address filter matches every contract on chain.
	if len(pools) == 0 {
		return emptyResultSet()
	}

	logs, err := a.filterLogs(ctx, from, to, pools, dex.PoolEventTopics())
	if err != nil {
		return model.ResultSet{}, err
	}

	decoded, err := a.decodeLogs(logs)
	if err != nil {
		return model.ResultSet{}, err
	}

	timestamps, err := a.cache.Timestamps(ctx, distinctBlocks(decoded), a.cfg.Concurrency)
	if err != nil {
		return model.ResultSet{}, err
	}

	records := make([]model.EventRecord, 0, len(decoded))
	for _, item := range decoded {
		records = append(records, model.EventRecord{
			Event:           item.Event,
			TransactionHash: strings.TrimPrefix(item.TxHash.Hex(), "0x"),
			BlockNumber:     item.BlockNumber,
			Timestamp:       timestamps[item.BlockNumber],
			PoolAddress:     strings.ToLower(item.Address.Hex()),
		})
	}

	digest, err := DigestRecords(records)
	if err != nil {
		return model.ResultSet{}, err
	}

	a.logger.Info("pool events aggregated",
		zap.Int("pools", len(pools)),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("logs", len(logs)),
		zap.Int("records", len(records)))

	return model.ResultSet{Data: records, OverallDataHash: digest}, nil
}

// FetchPoolCreated returns the factory's PoolCreated events in [from, to].
func (a *Aggregator) FetchPoolCreated(ctx context.Context, from, to uint64) ([]model.PoolCreatedRecord, error) {
	if to < from {
		return nil, fmt.Errorf("%w: to block %d is before from block %d", model.ErrInvalidRange, to, from)
	}

	logs, err := a.filterLogs(ctx, from, to, []common.Address{a.cfg.Factory}, []common.Hash{dex.PoolCreatedTopic})
	if err != nil {
		return nil, err
	}

	decoded, err := a.decodeLogs(logs)
	if err != nil {
		return nil, err
	}

	out := make([]model.PoolCreatedRecord, 0, len(decoded))
	for _, item := range decoded {
		created, ok := item.Event.(model.PoolCreatedEvent)
		if !ok {
			a.logger.Warn("skip non pool created event", zap.String("type", string(item.Event.Kind())))
			continue
		}
		out = append(out, model.PoolCreatedRecord{
			Token0:      created.Token0,
			Token1:      created.Token1,
			Fee:         created.Fee,
			TickSpacing: created.TickSpacing,
			Pool:        created.Pool,
			BlockNumber: item.BlockNumber,
		})
	}

	a.logger.Info("pool created events fetched",
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("pools", len(out)))

	return out, nil
}

func (a *Aggregator) filterLogs(
	ctx context.Context,
	from, to uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	ranges, err := SplitRange(from, to, a.cfg.LogBatchSize)
	if err != nil {
		return nil, err
	}

	var out []types.Log
	seen := make(map[logID]struct{})
	for _, blockRange := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.logger.Debug("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := a.logs.FilterLogs(ctx, blockRange.From, blockRange.To, addresses, topic0)
		if err != nil {
			return nil, err
		}
		for _, log := range logs {
			id := logID{block: log.BlockNumber, tx: log.TxHash, index: log.Index}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, log)
		}
	}
	return out, nil
}

// decodeLogs decodes in order. Unknown signatures are skipped; any other
// failure aborts the whole call.
func (a *Aggregator) decodeLogs(logs []types.Log) ([]dex.DecodedLog, error) {
	out := make([]dex.DecodedLog, 0, len(logs))
	for _, log := range logs {
		decoded, err := a.decoder.Decode(log)
		if err != nil {
			if errors.Is(err, model.ErrUnknownSignature) {
				a.logger.Warn("skip log with unknown signature",
					zap.String("tx", log.TxHash.Hex()),
					zap.Uint("index", log.Index),
					zap.Error(err))
				continue
			}
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

type logID struct {
	block uint64
	tx    common.Hash
	index uint
}

func distinctBlocks(decoded []dex.DecodedLog) []uint64 {
	seen := make(map[uint64]struct{}, len(decoded))
	out := make([]uint64, 0, len(decoded))
	for _, item := range decoded {
		if _, ok := seen[item.BlockNumber]; ok {
			continue
		}
		seen[item.BlockNumber] = struct{}{}
		out = append(out, item.BlockNumber)
	}
	return out
}

func emptyResultSet() (model.ResultSet, error) {
	digest, err := DigestRecords(nil)
	if err != nil {
		return model.ResultSet{}, err
	}
	return model.ResultSet{Data: []model.EventRecord{}, OverallDataHash: digest}, nil
}

// Package fetcher exposes the pool data entry points over a single chain
// session. A Service owns the block timestamp cache, so repeated calls on the
// same Service share timestamp reads.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolDataFetcher/internal/aggregate"
	"poolDataFetcher/internal/blocktime"
	"poolDataFetcher/internal/dex"
	"poolDataFetcher/internal/model"
)

// Chain is the chain access a session needs.
type Chain interface {
	blocktime.ChainReader
	aggregate.LogFilterer
	dex.ContractCaller
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	Factory      common.Address
	SampleSize   uint64
	Concurrency  int
	LogBatchSize uint64
	Logger       *zap.Logger
	// Now overrides the wall clock used by ResolveBlockRange.
	Now func() time.Time
}

// Service is one fetcher session.
type Service struct {
	ranges     *blocktime.RangeResolver
	aggregator *aggregate.Aggregator
	cache      *aggregate.BlockTimestampCache
	logger     *zap.Logger
}

func New(chain Chain, opts Options) (*Service, error) {
	if chain == nil {
		return nil, fmt.Errorf("%w: chain is nil", model.ErrInvalidInput)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	decoder, err := dex.NewPoolEventDecoder()
	if err != nil {
		return nil, err
	}
	pools, err := dex.NewPoolAddressResolver(chain, opts.Factory, opts.Concurrency)
	if err != nil {
		return nil, err
	}

	ranges := blocktime.NewRangeResolver(chain, opts.SampleSize, opts.Concurrency, logger)
	if opts.Now != nil {
		ranges.Now = opts.Now
	}

	cache := aggregate.NewBlockTimestampCache(chain)
	aggregator := aggregate.NewAggregator(aggregate.Config{
		Factory:      pools.Factory(),
		Concurrency:  opts.Concurrency,
		LogBatchSize: opts.LogBatchSize,
	}, chain, pools, decoder, cache, logger)

	return &Service{
		ranges:     ranges,
		aggregator: aggregator,
		cache:      cache,
		logger:     logger,
	}, nil
}

// ResolveBlockRange converts "YYYY-MM-DD HH:MM:SS" UTC datetimes into a block
// range. The end block is extrapolated from the average block time.
func (s *Service) ResolveBlockRange(ctx context.Context, start, end string) (model.BlockRange, error) {
	return s.ranges.BlockRange(ctx, start, end)
}

// FetchPoolEventsByTokenPairs resolves pairs through the factory and returns
// their pool events in [from, to].
func (s *Service) FetchPoolEventsByTokenPairs(ctx context.Context, pairs []model.TokenPair, from, to uint64) (model.ResultSet, error) {
	return s.aggregator.FetchByTokenPairs(ctx, pairs, from, to)
}

// FetchPoolEventsByPoolAddresses returns the events of pools in [from, to].
func (s *Service) FetchPoolEventsByPoolAddresses(ctx context.Context, pools []common.Address, from, to uint64) (model.ResultSet, error) {
	return s.aggregator.FetchByPoolAddresses(ctx, pools, from, to)
}

// FetchPoolEventsByTimeRange resolves the datetime range and then behaves like
// FetchPoolEventsByTokenPairs. interval is accepted but not used for sampling.
func (s *Service) FetchPoolEventsByTimeRange(
	ctx context.Context,
	pairs []model.TokenPair,
	start, end string,
	interval string,
) (model.ResultSet, error) {
	blockRange, err := s.ResolveBlockRange(ctx, start, end)
	if err != nil {
		return model.ResultSet{}, err
	}
	s.logger.Info("fetch pool events by time range",
		zap.String("start", start),
		zap.String("end", end),
		zap.String("interval", interval),
		zap.Uint64("from", blockRange.From),
		zap.Uint64("to", blockRange.To))

	return s.aggregator.FetchByTokenPairs(ctx, pairs, blockRange.From, blockRange.To)
}

// FetchPoolCreatedEvents returns the factory's PoolCreated events between two
// datetimes.
func (s *Service) FetchPoolCreatedEvents(ctx context.Context, start, end string) ([]model.PoolCreatedRecord, error) {
	blockRange, err := s.ResolveBlockRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.aggregator.FetchPoolCreated(ctx, blockRange.From, blockRange.To)
}

// CachedBlocks reports how many block timestamps the session holds.
func (s *Service) CachedBlocks() int {
	return s.cache.Len()
}

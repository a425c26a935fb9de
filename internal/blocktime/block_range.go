package blocktime

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"poolDataFetcher/internal/model"
)

// DateTimeLayout is the accepted UTC datetime format ("YYYY-MM-DD HH:MM:SS").
const DateTimeLayout = "2006-01-02 15:04:05"

// ParseDateTime parses a UTC datetime in exactly DateTimeLayout into unix
// seconds. Surrounding whitespace and fractional seconds are rejected.
func ParseDateTime(input string) (uint64, error) {
	tm, err := time.ParseInLocation(DateTimeLayout, input, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: datetime %q: %w", model.ErrInvalidInput, input, err)
	}
	if tm.Format(DateTimeLayout) != input {
		return 0, fmt.Errorf("%w: datetime %q is not in %s form", model.ErrInvalidInput, input, "YYYY-MM-DD HH:MM:SS")
	}
	if tm.Unix() < 0 {
		return 0, fmt.Errorf("%w: datetime %q is before the unix epoch", model.ErrInvalidInput, input)
	}
	return uint64(tm.Unix()), nil
}

// RangeResolver converts datetime pairs into block ranges.
type RangeResolver struct {
	chain       ChainReader
	sampleSize  uint64
	concurrency int
	logger      *zap.Logger

	// Now reports the wall clock used to reject future start times.
	Now func() time.Time
}

// NewRangeResolver builds a RangeResolver. A sampleSize of zero selects
// DefaultSampleSize.
func NewRangeResolver(chain ChainReader, sampleSize uint64, concurrency int, logger *zap.Logger) *RangeResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sampleSize == 0 {
		sampleSize = DefaultSampleSize
	}
	return &RangeResolver{
		chain:       chain,
		sampleSize:  sampleSize,
		concurrency: concurrency,
		logger:      logger,
		Now:         time.Now,
	}
}

// BlockRange resolves start to an exact block and extrapolates the end block
// from the average block time. The end block is an estimate and can drift
// from the true block at end by the estimator's error.
func (r *RangeResolver) BlockRange(ctx context.Context, start, end string) (model.BlockRange, error) {
	startTs, err := ParseDateTime(start)
	if err != nil {
		return model.BlockRange{}, err
	}
	endTs, err := ParseDateTime(end)
	if err != nil {
		return model.BlockRange{}, err
	}

	now := r.Now().UTC().Unix()
	if int64(startTs) > now {
		return model.BlockRange{}, fmt.Errorf("%w: start %s is in the future", model.ErrInvalidInput, start)
	}
	if endTs < startTs {
		return model.BlockRange{}, fmt.Errorf("%w: end %s is before start %s", model.ErrInvalidInput, end, start)
	}

	estimate, err := AverageBlockTime(ctx, r.chain, r.sampleSize, r.concurrency)
	if err != nil {
		return model.BlockRange{}, fmt.Errorf("average block time: %w", err)
	}

	startBlock, err := BlockAtTimestamp(ctx, r.chain, startTs, estimate)
	if err != nil {
		return model.BlockRange{}, fmt.Errorf("block at %s: %w", start, err)
	}
	endBlock := startBlock + (endTs-startTs)/estimate

	r.logger.Debug("resolved block range",
		zap.String("start", start),
		zap.String("end", end),
		zap.Uint64("block_time", estimate),
		zap.Uint64("from", startBlock),
		zap.Uint64("to", endBlock),
	)

	return model.BlockRange{From: startBlock, To: endBlock}, nil
}

// Package blocktime converts wall-clock timestamps into block numbers.
package blocktime

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"poolDataFetcher/internal/model"
)

// DefaultSampleSize is the number of recent blocks sampled for the average
// block time.
const DefaultSampleSize = 100

// ChainReader is the chain access the resolver needs.
type ChainReader interface {
	LatestBlock(ctx context.Context) (model.BlockHeader, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// AverageBlockTime samples the latest sampleSize blocks and returns the mean
// inter-block time in whole seconds, never less than one.
func AverageBlockTime(ctx context.Context, chain ChainReader, sampleSize uint64, concurrency int) (uint64, error) {
	if sampleSize < 2 {
		return 0, fmt.Errorf("%w: sample size must be at least 2, got %d", model.ErrInvalidInput, sampleSize)
	}

	latest, err := chain.LatestBlock(ctx)
	if err != nil {
		return 0, err
	}
	if latest.Number+1 < sampleSize {
		sampleSize = latest.Number + 1
	}
	if sampleSize < 2 {
		return 0, fmt.Errorf("%w: chain has %d blocks, need at least 2", model.ErrInvalidRange, latest.Number+1)
	}

	// timestamps[i] belongs to block latest-i, so the slice is in descending
	// block order whatever order the fetches complete in.
	timestamps := make([]uint64, sampleSize)
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i := uint64(0); i < sampleSize; i++ {
		i := i
		g.Go(func() error {
			ts, err := chain.BlockTimestamp(gctx, latest.Number-i)
			if err != nil {
				return err
			}
			timestamps[i] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total uint64
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i-1] < timestamps[i] {
			return 0, fmt.Errorf("%w: block %d timestamp %d is after block %d timestamp %d",
				model.ErrChainRead, latest.Number-uint64(i), timestamps[i], latest.Number-uint64(i-1), timestamps[i-1])
		}
		total += timestamps[i-1] - timestamps[i]
	}

	avg := total / (sampleSize - 1)
	if avg == 0 {
		avg = 1
	}
	return avg, nil
}

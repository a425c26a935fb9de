package blocktime

import (
	"context"
	"fmt"

	"poolDataFetcher/internal/model"
)

// BlockAtTimestamp returns the first block whose timestamp is >= target.
//
// The first probe is an estimate derived from the latest block and the
// average block time; the search then bisects [0, latest]. Block timestamps
// must be non-decreasing in block number.
func BlockAtTimestamp(ctx context.Context, chain ChainReader, target, estimate uint64) (uint64, error) {
	if estimate == 0 {
		return 0, fmt.Errorf("%w: block time estimate must be positive", model.ErrInvalidInput)
	}

	latest, err := chain.LatestBlock(ctx)
	if err != nil {
		return 0, err
	}

	// Nothing newer than the latest block exists yet.
	if target > latest.Timestamp {
		return latest.Number, nil
	}

	back := (latest.Timestamp - target) / estimate
	if back > latest.Number {
		return 0, fmt.Errorf("%w: estimated block for timestamp %d is %d blocks before genesis",
			model.ErrInvalidRange, target, back-latest.Number)
	}
	guess := latest.Number - back

	low, high := uint64(0), latest.Number
	mid := guess
	for low < high {
		ts, err := chain.BlockTimestamp(ctx, mid)
		if err != nil {
			return 0, err
		}
		if ts < target {
			low = mid + 1
		} else {
			high = mid
		}
		mid = low + (high-low)/2
	}

	if low == 0 {
		genesis, err := chain.BlockTimestamp(ctx, 0)
		if err != nil {
			return 0, err
		}
		if genesis > target {
			return 0, fmt.Errorf("%w: timestamp %d is before genesis timestamp %d", model.ErrInvalidRange, target, genesis)
		}
	}

	return low, nil
}

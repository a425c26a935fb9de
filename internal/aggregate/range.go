package aggregate

import (
	"fmt"

	"poolDataFetcher/internal/model"
)

// SplitRange splits an inclusive block range into chunks of at most batchSize
// blocks. A batchSize of zero returns the range unsplit.
func SplitRange(from, to, batchSize uint64) ([]model.BlockRange, error) {
	if to < from {
		return nil, fmt.Errorf("%w: to block %d is before from block %d", model.ErrInvalidRange, to, from)
	}
	if batchSize == 0 {
		return []model.BlockRange{{From: from, To: to}}, nil
	}

	ranges := make([]model.BlockRange, 0, (to-from)/batchSize+1)
	start := from
	for {
		end := to
		if to-start+1 > batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, model.BlockRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}

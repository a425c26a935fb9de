package aggregate

import (
	"context"
	"strconv"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// TimestampReader reads a block timestamp from the chain.
type TimestampReader interface {
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// BlockTimestampCache memoizes block timestamps for the lifetime of a session.
// Entries are written once and never evicted. Concurrent misses on the same
// block share a single chain read.
type BlockTimestampCache struct {
	chain   TimestampReader
	entries *xsync.Map[uint64, uint64]
	group   singleflight.Group
}

func NewBlockTimestampCache(chain TimestampReader) *BlockTimestampCache {
	return &BlockTimestampCache{
		chain:   chain,
		entries: xsync.NewMap[uint64, uint64](),
	}
}

// Timestamp returns the timestamp of block number, reading through to the
// chain on a miss. Failed reads are not cached. The shared read is detached
// from the caller's cancellation; each caller stops waiting when its own ctx
// is done.
func (c *BlockTimestampCache) Timestamp(ctx context.Context, number uint64) (uint64, error) {
	if ts, ok := c.entries.Load(number); ok {
		return ts, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(number, 10), func() (interface{}, error) {
		if ts, ok := c.entries.Load(number); ok {
			return ts, nil
		}
		ts, err := c.chain.BlockTimestamp(fetchCtx, number)
		if err != nil {
			return nil, err
		}
		c.entries.Store(number, ts)
		return ts, nil
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(uint64), nil
	}
}

// Timestamps resolves every block in numbers with at most concurrency reads in
// flight and returns them keyed by block number.
func (c *BlockTimestampCache) Timestamps(ctx context.Context, numbers []uint64, concurrency int) (map[uint64]uint64, error) {
	values := make([]uint64, len(numbers))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, number := range numbers {
		i, number := i, number
		g.Go(func() error {
			ts, err := c.Timestamp(gctx, number)
			if err != nil {
				return err
			}
			values[i] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[uint64]uint64, len(numbers))
	for i, number := range numbers {
		out[number] = values[i]
	}
	return out, nil
}

// Len returns the number of cached blocks.
func (c *BlockTimestampCache) Len() int {
	return c.entries.Size()
}

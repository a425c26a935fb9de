package blocktime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"poolDataFetcher/internal/chain/chaintest"
	"poolDataFetcher/internal/model"
)

func newTestRangeResolver(chain ChainReader) *RangeResolver {
	r := NewRangeResolver(chain, 0, 4, nil)
	r.Now = func() time.Time { return time.Unix(int64(genesisTs+12000), 0) }
	return r
}

func TestParseDateTime(t *testing.T) {
	ts, err := ParseDateTime("2023-11-14 22:13:20")
	require.NoError(t, err)
	require.Equal(t, genesisTs, ts)

	for _, input := range []string{
		"",
		"2023-11-14T22:13:20Z",
		"2023-13-01 00:00:00",
		"yesterday",
		" 2023-11-14 22:13:20",
		"2023-11-14 22:13:20 ",
		"2023-11-14 22:33:20.5",
		"2023-11-14 22:33:20.000",
	} {
		_, err := ParseDateTime(input)
		require.ErrorIs(t, err, model.ErrInvalidInput, input)
	}
}

func TestBlockRange(t *testing.T) {
	chain := chaintest.NewLinear(genesisTs, 12, 1000)
	r := newTestRangeResolver(chain)

	got, err := r.BlockRange(context.Background(), "2023-11-14 22:33:20", "2023-11-14 23:33:20")
	require.NoError(t, err)
	require.Equal(t, model.BlockRange{From: 100, To: 400}, got)
}

func TestBlockRangeSameStartAndEnd(t *testing.T) {
	chain := chaintest.NewLinear(genesisTs, 12, 1000)
	r := newTestRangeResolver(chain)

	got, err := r.BlockRange(context.Background(), "2023-11-14 22:33:20", "2023-11-14 22:33:20")
	require.NoError(t, err)
	require.Equal(t, model.BlockRange{From: 100, To: 100}, got)
}

func TestBlockRangeRejectsFutureStart(t *testing.T) {
	chain := chaintest.NewLinear(genesisTs, 12, 1000)
	r := newTestRangeResolver(chain)

	_, err := r.BlockRange(context.Background(), "2030-01-01 00:00:00", "2030-01-02 00:00:00")
	require.ErrorIs(t, err, model.ErrInvalidInput)
	require.Zero(t, chain.LatestCalls())
}

func TestBlockRangeRejectsEndBeforeStart(t *testing.T) {
	chain := chaintest.NewLinear(genesisTs, 12, 1000)
	r := newTestRangeResolver(chain)

	_, err := r.BlockRange(context.Background(), "2023-11-14 23:33:20", "2023-11-14 22:33:20")
	require.ErrorIs(t, err, model.ErrInvalidInput)
	require.Zero(t, chain.LatestCalls())
}

func TestBlockRangeRejectsBadFormat(t *testing.T) {
	chain := chaintest.NewLinear(genesisTs, 12, 1000)
	r := newTestRangeResolver(chain)

	_, err := r.BlockRange(context.Background(), "2023/11/14 22:33:20", "2023-11-14 23:33:20")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = r.BlockRange(context.Background(), "2023-11-14 22:33:20", "not a date")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestBlockRangePropagatesChainErrors(t *testing.T) {
	chain := chaintest.NewLinear(genesisTs, 12, 1000)
	chain.FailLatest = true
	r := newTestRangeResolver(chain)

	_, err := r.BlockRange(context.Background(), "2023-11-14 22:33:20", "2023-11-14 23:33:20")
	require.ErrorIs(t, err, model.ErrChainRead)
}

package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"poolDataFetcher/internal/model"
)

// ContractCaller performs read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// PoolAddressResolver looks pools up through the factory's getPool.
type PoolAddressResolver struct {
	caller      ContractCaller
	factory     common.Address
	factoryABI  abi.ABI
	concurrency int
}

// NewPoolAddressResolver builds a resolver against factory. A zero factory
// address selects DefaultFactoryAddress.
func NewPoolAddressResolver(caller ContractCaller, factory common.Address, concurrency int) (*PoolAddressResolver, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: contract caller is nil", model.ErrInvalidInput)
	}
	factoryABI, err := V3FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("factory abi: %w", err)
	}
	if factory == (common.Address{}) {
		factory = DefaultFactoryAddress
	}
	return &PoolAddressResolver{
		caller:      caller,
		factory:     factory,
		factoryABI:  factoryABI,
		concurrency: concurrency,
	}, nil
}

// Factory returns the factory address queried by the resolver.
func (r *PoolAddressResolver) Factory() common.Address {
	return r.factory
}

// PoolAddress returns the pool for the pair at the latest block. The zero
// address means the factory has no such pool.
func (r *PoolAddressResolver) PoolAddress(ctx context.Context, pair model.TokenPair) (common.Address, error) {
	input, err := r.factoryABI.Pack("getPool", pair.Token0, pair.Token1, new(big.Int).SetUint64(uint64(pair.Fee)))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: pack getPool: %w", model.ErrInvalidInput, err)
	}

	factory := r.factory
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &factory, Data: input}, nil)
	if err != nil {
		return common.Address{}, err
	}

	values, err := r.factoryABI.Unpack("getPool", out)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: getPool %s/%s/%d: %w",
			model.ErrChainRead, pair.Token0.Hex(), pair.Token1.Hex(), pair.Fee, err)
	}
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("%w: getPool returned %d values", model.ErrChainRead, len(values))
	}
	pool, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: getPool: %w", model.ErrChainRead, err)
	}
	return pool, nil
}

// PoolAddresses resolves pairs concurrently. The result is index-aligned with
// pairs and may hold zero addresses for pairs without a pool.
func (r *PoolAddressResolver) PoolAddresses(ctx context.Context, pairs []model.TokenPair) ([]common.Address, error) {
	out := make([]common.Address, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			pool, err := r.PoolAddress(gctx, pair)
			if err != nil {
				return err
			}
			out[i] = pool
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

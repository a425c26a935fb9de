package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolDataFetcher/internal/model"
)

// DecodedLog is a decoded event together with the log metadata it came from.
type DecodedLog struct {
	Event       model.DecodedEvent
	TxHash      common.Hash
	BlockNumber uint64
	Address     common.Address
}

// PoolEventDecoder decodes Uniswap V3 pool and factory logs.
type PoolEventDecoder struct {
	poolABI    abi.ABI
	factoryABI abi.ABI
}

// NewPoolEventDecoder builds a decoder over the V3 pool and factory ABIs.
func NewPoolEventDecoder() (*PoolEventDecoder, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("pool abi: %w", err)
	}
	factoryABI, err := V3FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("factory abi: %w", err)
	}
	return &PoolEventDecoder{poolABI: poolABI, factoryABI: factoryABI}, nil
}

// Decode maps a raw log onto its typed event. Logs without a block number or
// transaction hash (pending logs) fail with model.ErrMissingMetadata before any
// topic is inspected.
func (d *PoolEventDecoder) Decode(log types.Log) (DecodedLog, error) {
	if log.BlockNumber == 0 {
		return DecodedLog{}, fmt.Errorf("%w: block number", model.ErrMissingMetadata)
	}
	if log.TxHash == (common.Hash{}) {
		return DecodedLog{}, fmt.Errorf("%w: transaction hash", model.ErrMissingMetadata)
	}
	if len(log.Topics) == 0 {
		return DecodedLog{}, fmt.Errorf("%w: log without topics in tx %s", model.ErrUnknownSignature, log.TxHash.Hex())
	}

	var (
		event model.DecodedEvent
		err   error
	)
	switch log.Topics[0] {
	case SwapTopic:
		event, err = d.decodeSwap(log)
	case MintTopic:
		event, err = d.decodeMint(log)
	case BurnTopic:
		event, err = d.decodeBurn(log)
	case CollectTopic:
		event, err = d.decodeCollect(log)
	case PoolCreatedTopic:
		event, err = d.decodePoolCreated(log)
	default:
		return DecodedLog{}, fmt.Errorf("%w: %s", model.ErrUnknownSignature, log.Topics[0].Hex())
	}
	if err != nil {
		return DecodedLog{}, fmt.Errorf("%w: tx %s index %d: %w", model.ErrDecode, log.TxHash.Hex(), log.Index, err)
	}

	return DecodedLog{
		Event:       event,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		Address:     log.Address,
	}, nil
}

func (d *PoolEventDecoder) decodeSwap(log types.Log) (model.SwapEvent, error) {
	event := d.poolABI.Events["Swap"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.SwapEvent{}, err
	}

	var indexed struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.SwapEvent{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SwapEvent{}, err
	}
	if len(values) != 5 {
		return model.SwapEvent{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amount0, err := asBigInt(values[0])
	if err != nil {
		return model.SwapEvent{}, err
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return model.SwapEvent{}, err
	}
	sqrtPrice, err := asBigInt(values[2])
	if err != nil {
		return model.SwapEvent{}, err
	}
	liquidity, err := asBigInt(values[3])
	if err != nil {
		return model.SwapEvent{}, err
	}
	tickInt, err := asBigInt(values[4])
	if err != nil {
		return model.SwapEvent{}, err
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.SwapEvent{}, err
	}

	return model.SwapEvent{
		Sender:       hexAddress(indexed.Sender),
		Recipient:    hexAddress(indexed.Recipient),
		Amount0:      amount0.String(),
		Amount1:      amount1.String(),
		SqrtPriceX96: sqrtPrice.String(),
		Liquidity:    liquidity.String(),
		Tick:         tick,
	}, nil
}

func (d *PoolEventDecoder) decodeMint(log types.Log) (model.MintEvent, error) {
	event := d.poolABI.Events["Mint"]
	owner, tickLower, tickUpper, err := parsePositionTopics(event, log.Topics)
	if err != nil {
		return model.MintEvent{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.MintEvent{}, err
	}
	if len(values) != 4 {
		return model.MintEvent{}, fmt.Errorf("unexpected mint values: %d", len(values))
	}

	sender, err := asAddress(values[0])
	if err != nil {
		return model.MintEvent{}, err
	}
	amounts, err := bigStrings(values[1:])
	if err != nil {
		return model.MintEvent{}, err
	}

	return model.MintEvent{
		Sender:    hexAddress(sender),
		Owner:     hexAddress(owner),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    amounts[0],
		Amount0:   amounts[1],
		Amount1:   amounts[2],
	}, nil
}

func (d *PoolEventDecoder) decodeBurn(log types.Log) (model.BurnEvent, error) {
	event := d.poolABI.Events["Burn"]
	owner, tickLower, tickUpper, err := parsePositionTopics(event, log.Topics)
	if err != nil {
		return model.BurnEvent{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.BurnEvent{}, err
	}
	if len(values) != 3 {
		return model.BurnEvent{}, fmt.Errorf("unexpected burn values: %d", len(values))
	}
	amounts, err := bigStrings(values)
	if err != nil {
		return model.BurnEvent{}, err
	}

	return model.BurnEvent{
		Owner:     hexAddress(owner),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    amounts[0],
		Amount0:   amounts[1],
		Amount1:   amounts[2],
	}, nil
}

func (d *PoolEventDecoder) decodeCollect(log types.Log) (model.CollectEvent, error) {
	event := d.poolABI.Events["Collect"]
	owner, tickLower, tickUpper, err := parsePositionTopics(event, log.Topics)
	if err != nil {
		return model.CollectEvent{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.CollectEvent{}, err
	}
	if len(values) != 3 {
		return model.CollectEvent{}, fmt.Errorf("unexpected collect values: %d", len(values))
	}

	recipient, err := asAddress(values[0])
	if err != nil {
		return model.CollectEvent{}, err
	}
	amounts, err := bigStrings(values[1:])
	if err != nil {
		return model.CollectEvent{}, err
	}

	return model.CollectEvent{
		Owner:     hexAddress(owner),
		Recipient: hexAddress(recipient),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount0:   amounts[0],
		Amount1:   amounts[1],
	}, nil
}

func (d *PoolEventDecoder) decodePoolCreated(log types.Log) (model.PoolCreatedEvent, error) {
	event := d.factoryABI.Events["PoolCreated"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.PoolCreatedEvent{}, err
	}

	var indexed struct {
		Token0 common.Address
		Token1 common.Address
		Fee    *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.PoolCreatedEvent{}, fmt.Errorf("parse topics: %w", err)
	}
	fee, err := uint24FromBig(indexed.Fee)
	if err != nil {
		return model.PoolCreatedEvent{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.PoolCreatedEvent{}, err
	}
	if len(values) != 2 {
		return model.PoolCreatedEvent{}, fmt.Errorf("unexpected pool created values: %d", len(values))
	}
	spacingInt, err := asBigInt(values[0])
	if err != nil {
		return model.PoolCreatedEvent{}, err
	}
	tickSpacing, err := int24FromBig(spacingInt)
	if err != nil {
		return model.PoolCreatedEvent{}, err
	}
	pool, err := asAddress(values[1])
	if err != nil {
		return model.PoolCreatedEvent{}, err
	}

	return model.PoolCreatedEvent{
		Token0:      hexAddress(indexed.Token0),
		Token1:      hexAddress(indexed.Token1),
		Fee:         fee,
		TickSpacing: tickSpacing,
		Pool:        hexAddress(pool),
	}, nil
}

// parsePositionTopics reads the (owner, tickLower, tickUpper) topics shared by
// Mint, Burn and Collect.
func parsePositionTopics(event abi.Event, topics []common.Hash) (common.Address, int32, int32, error) {
	indexedTopics, err := parseIndexedTopics(event, topics)
	if err != nil {
		return common.Address{}, 0, 0, err
	}

	var indexed struct {
		Owner     common.Address
		TickLower *big.Int
		TickUpper *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return common.Address{}, 0, 0, fmt.Errorf("parse topics: %w", err)
	}

	tickLower, err := int24FromBig(indexed.TickLower)
	if err != nil {
		return common.Address{}, 0, 0, err
	}
	tickUpper, err := int24FromBig(indexed.TickUpper)
	if err != nil {
		return common.Address{}, 0, 0, err
	}
	return indexed.Owner, tickLower, tickUpper, nil
}

func parseIndexedTopics(event abi.Event, topics []common.Hash) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("%s: expected %d topics, got %d", event.Name, indexedCount+1, len(topics))
	}
	return topics[1:], nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, data []byte) ([]interface{}, error) {
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func bigStrings(values []interface{}) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, value := range values {
		n, err := asBigInt(value)
		if err != nil {
			return nil, err
		}
		out = append(out, n.String())
	}
	return out, nil
}

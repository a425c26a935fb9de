package dex

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolDataFetcher/internal/model"
)

func TestTopicConstantsMatchABI(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("pool abi: %v", err)
	}
	factoryABI, err := V3FactoryABI()
	if err != nil {
		t.Fatalf("factory abi: %v", err)
	}

	cases := map[string][2]common.Hash{
		"Swap":        {poolABI.Events["Swap"].ID, SwapTopic},
		"Mint":        {poolABI.Events["Mint"].ID, MintTopic},
		"Burn":        {poolABI.Events["Burn"].ID, BurnTopic},
		"Collect":     {poolABI.Events["Collect"].ID, CollectTopic},
		"PoolCreated": {factoryABI.Events["PoolCreated"].ID, PoolCreatedTopic},
	}
	for name, pair := range cases {
		if pair[0] != pair[1] {
			t.Fatalf("%s topic mismatch: abi %s const %s", name, pair[0].Hex(), pair[1].Hex())
		}
	}
}

func TestPoolEventDecoderSwap(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder := newTestDecoder(t)

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	data, err := poolABI.Events["Swap"].Inputs.NonIndexed().Pack(
		big.NewInt(-1000),
		big.NewInt(2000),
		big.NewInt(123456789),
		big.NewInt(987654321),
		big.NewInt(-15),
	)
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	log := buildLog(pool, SwapTopic, data, []common.Hash{
		topicFromAddress(sender),
		topicFromAddress(recipient),
	})

	decoded, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}
	if decoded.BlockNumber != log.BlockNumber || decoded.TxHash != log.TxHash || decoded.Address != pool {
		t.Fatalf("metadata mismatch: %+v", decoded)
	}

	swap, ok := decoded.Event.(model.SwapEvent)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", decoded.Event)
	}
	if swap.Amount0 != "-1000" || swap.Amount1 != "2000" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
	if swap.SqrtPriceX96 != "123456789" || swap.Liquidity != "987654321" {
		t.Fatalf("price/liquidity mismatch: %+v", swap)
	}
	if swap.Tick != -15 {
		t.Fatalf("tick mismatch: %d", swap.Tick)
	}
	if swap.Sender != strings.ToLower(sender.Hex()) || swap.Recipient != strings.ToLower(recipient.Hex()) {
		t.Fatalf("address mismatch: %+v", swap)
	}
}

func TestPoolEventDecoderMintBurnCollect(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder := newTestDecoder(t)

	pool := common.HexToAddress("0x9999999999999999999999999999999999999999")
	sender := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	owner := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	recipient := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	mintData, err := poolABI.Events["Mint"].Inputs.NonIndexed().Pack(
		sender,
		big.NewInt(5000),
		big.NewInt(100),
		big.NewInt(200),
	)
	if err != nil {
		t.Fatalf("pack mint: %v", err)
	}
	mintLog := buildLog(pool, MintTopic, mintData, []common.Hash{
		topicFromAddress(owner),
		topicFromInt24(-120),
		topicFromInt24(120),
	})

	decoded, err := decoder.Decode(mintLog)
	if err != nil {
		t.Fatalf("decode mint: %v", err)
	}
	mint, ok := decoded.Event.(model.MintEvent)
	if !ok {
		t.Fatalf("mint type mismatch: %T", decoded.Event)
	}
	if mint.TickLower != -120 || mint.TickUpper != 120 {
		t.Fatalf("mint tick mismatch: %+v", mint)
	}
	if mint.Amount != "5000" || mint.Amount0 != "100" || mint.Amount1 != "200" {
		t.Fatalf("mint amount mismatch: %+v", mint)
	}
	if mint.Sender != strings.ToLower(sender.Hex()) || mint.Owner != strings.ToLower(owner.Hex()) {
		t.Fatalf("mint address mismatch: %+v", mint)
	}

	burnData, err := poolABI.Events["Burn"].Inputs.NonIndexed().Pack(
		big.NewInt(7000),
		big.NewInt(300),
		big.NewInt(400),
	)
	if err != nil {
		t.Fatalf("pack burn: %v", err)
	}
	burnLog := buildLog(pool, BurnTopic, burnData, []common.Hash{
		topicFromAddress(owner),
		topicFromInt24(-60),
		topicFromInt24(60),
	})

	decoded, err = decoder.Decode(burnLog)
	if err != nil {
		t.Fatalf("decode burn: %v", err)
	}
	burn, ok := decoded.Event.(model.BurnEvent)
	if !ok {
		t.Fatalf("burn type mismatch: %T", decoded.Event)
	}
	if burn.Amount != "7000" || burn.TickLower != -60 || burn.TickUpper != 60 {
		t.Fatalf("burn mismatch: %+v", burn)
	}

	collectData, err := poolABI.Events["Collect"].Inputs.NonIndexed().Pack(
		recipient,
		big.NewInt(900),
		big.NewInt(1000),
	)
	if err != nil {
		t.Fatalf("pack collect: %v", err)
	}
	collectLog := buildLog(pool, CollectTopic, collectData, []common.Hash{
		topicFromAddress(owner),
		topicFromInt24(-10),
		topicFromInt24(10),
	})

	decoded, err = decoder.Decode(collectLog)
	if err != nil {
		t.Fatalf("decode collect: %v", err)
	}
	collect, ok := decoded.Event.(model.CollectEvent)
	if !ok {
		t.Fatalf("collect type mismatch: %T", decoded.Event)
	}
	if collect.Amount0 != "900" || collect.Amount1 != "1000" {
		t.Fatalf("collect amount mismatch: %+v", collect)
	}
	if collect.Recipient != strings.ToLower(recipient.Hex()) {
		t.Fatalf("collect recipient mismatch: %s", collect.Recipient)
	}
}

func TestPoolEventDecoderPoolCreated(t *testing.T) {
	factoryABI, err := V3FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder := newTestDecoder(t)

	token0 := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	token1 := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	pool := common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")

	data, err := factoryABI.Events["PoolCreated"].Inputs.NonIndexed().Pack(big.NewInt(10), pool)
	if err != nil {
		t.Fatalf("pack pool created: %v", err)
	}
	log := buildLog(DefaultFactoryAddress, PoolCreatedTopic, data, []common.Hash{
		topicFromAddress(token0),
		topicFromAddress(token1),
		common.BigToHash(big.NewInt(500)),
	})

	decoded, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode pool created: %v", err)
	}
	created, ok := decoded.Event.(model.PoolCreatedEvent)
	if !ok {
		t.Fatalf("pool created type mismatch: %T", decoded.Event)
	}
	if created.Fee != 500 || created.TickSpacing != 10 {
		t.Fatalf("fee/spacing mismatch: %+v", created)
	}
	if created.Pool != "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640" {
		t.Fatalf("pool mismatch: %s", created.Pool)
	}
	if created.Token0 != "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" {
		t.Fatalf("token0 mismatch: %s", created.Token0)
	}
}

func TestPoolEventDecoderErrors(t *testing.T) {
	decoder := newTestDecoder(t)
	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")

	unknown := buildLog(pool, common.HexToHash("0xdeadbeef"), nil, nil)
	if _, err := decoder.Decode(unknown); !errors.Is(err, model.ErrUnknownSignature) {
		t.Fatalf("expected unknown signature, got %v", err)
	}

	noTopics := buildLog(pool, common.Hash{}, nil, nil)
	noTopics.Topics = nil
	if _, err := decoder.Decode(noTopics); !errors.Is(err, model.ErrUnknownSignature) {
		t.Fatalf("expected unknown signature for empty topics, got %v", err)
	}

	pending := buildLog(pool, SwapTopic, nil, nil)
	pending.BlockNumber = 0
	if _, err := decoder.Decode(pending); !errors.Is(err, model.ErrMissingMetadata) {
		t.Fatalf("expected missing metadata, got %v", err)
	}

	noTx := buildLog(pool, SwapTopic, nil, nil)
	noTx.TxHash = common.Hash{}
	if _, err := decoder.Decode(noTx); !errors.Is(err, model.ErrMissingMetadata) {
		t.Fatalf("expected missing metadata, got %v", err)
	}

	// Swap needs two indexed topics.
	short := buildLog(pool, SwapTopic, nil, []common.Hash{topicFromAddress(pool)})
	if _, err := decoder.Decode(short); !errors.Is(err, model.ErrDecode) {
		t.Fatalf("expected decode error for topic count, got %v", err)
	}

	truncated := buildLog(pool, SwapTopic, []byte{0x01, 0x02}, []common.Hash{
		topicFromAddress(pool),
		topicFromAddress(pool),
	})
	if _, err := decoder.Decode(truncated); !errors.Is(err, model.ErrDecode) {
		t.Fatalf("expected decode error for short data, got %v", err)
	}
}

func newTestDecoder(t *testing.T) *PoolEventDecoder {
	t.Helper()
	decoder, err := NewPoolEventDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	return decoder
}

func buildLog(address common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) types.Log {
	topics := make([]common.Hash, 0, len(indexed)+1)
	topics = append(topics, topic0)
	topics = append(topics, indexed...)

	return types.Log{
		Address:     address,
		Topics:      topics,
		Data:        data,
		BlockNumber: 12345,
		TxHash:      common.HexToHash("0xdef"),
		Index:       1,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func topicFromInt24(value int32) common.Hash {
	bigVal := big.NewInt(int64(value))
	if value < 0 {
		bigVal = new(big.Int).Add(bigVal, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return common.BigToHash(bigVal)
}

package model

// EventKind tags a decoded pool event.
type EventKind string

const (
	KindSwap        EventKind = "swap"
	KindMint        EventKind = "mint"
	KindBurn        EventKind = "burn"
	KindCollect     EventKind = "collect"
	KindPoolCreated EventKind = "pool_created"
)

// DecodedEvent is one of SwapEvent, MintEvent, BurnEvent, CollectEvent or
// PoolCreatedEvent.
type DecodedEvent interface {
	Kind() EventKind
	isDecodedEvent()
}

// SwapEvent is the decoded Swap event payload.
type SwapEvent struct {
	Sender       string `json:"sender"`
	Recipient    string `json:"to"`
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Liquidity    string `json:"liquidity"`
	Tick         int32  `json:"tick"`
}

// MintEvent is the decoded Mint event payload.
type MintEvent struct {
	Sender    string `json:"sender"`
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// BurnEvent is the decoded Burn event payload.
type BurnEvent struct {
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// CollectEvent is the decoded Collect event payload.
type CollectEvent struct {
	Owner     string `json:"owner"`
	Recipient string `json:"recipient"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// PoolCreatedEvent is the decoded factory PoolCreated payload.
type PoolCreatedEvent struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
	Pool        string `json:"pool"`
}

func (SwapEvent) Kind() EventKind        { return KindSwap }
func (MintEvent) Kind() EventKind        { return KindMint }
func (BurnEvent) Kind() EventKind        { return KindBurn }
func (CollectEvent) Kind() EventKind     { return KindCollect }
func (PoolCreatedEvent) Kind() EventKind { return KindPoolCreated }

func (SwapEvent) isDecodedEvent()        {}
func (MintEvent) isDecodedEvent()        {}
func (BurnEvent) isDecodedEvent()        {}
func (CollectEvent) isDecodedEvent()     {}
func (PoolCreatedEvent) isDecodedEvent() {}

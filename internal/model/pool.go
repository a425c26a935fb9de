package model

import "github.com/ethereum/go-ethereum/common"

// TokenPair identifies a V3 pool by its tokens and fee tier.
type TokenPair struct {
	Token0 common.Address
	Token1 common.Address
	Fee    uint32
}

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64 `json:"from_block"`
	To   uint64 `json:"to_block"`
}

// BlockHeader is the subset of a block header the resolver needs.
type BlockHeader struct {
	Number    uint64
	Timestamp uint64
}

package dex

import "github.com/ethereum/go-ethereum/common"

// Uniswap V3 mainnet deployment. Targeting another deployment means changing
// these values.
var (
	DefaultFactoryAddress = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")

	PoolCreatedTopic = common.HexToHash("0x783cca1c0412dd0d695e784568c96da2e9c22ff989357a2e8b1d9b2b4e6b7118")
	SwapTopic        = common.HexToHash("0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67")
	MintTopic        = common.HexToHash("0x7a53080ba414158be7ec69b987b5fb7d07dee101fe85488f0853ae16239d0bde")
	BurnTopic        = common.HexToHash("0x0c396cd989a39f4459b5fa1aed6a9a8dcdbc45908acfd67e028cd568da98982c")
	CollectTopic     = common.HexToHash("0x70935338e69775456a85ddef226c395fb668b63fa0115f5f20610b388e6ca9c0")
)

// PoolEventTopics returns the topic0 values emitted by pools.
func PoolEventTopics() []common.Hash {
	return []common.Hash{SwapTopic, MintTopic, BurnTopic, CollectTopic}
}

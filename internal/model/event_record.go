package model

import "encoding/json"

// EventRecord is a decoded pool event enriched with log metadata.
type EventRecord struct {
	Event           DecodedEvent
	TransactionHash string
	BlockNumber     uint64
	Timestamp       uint64
	PoolAddress     string
}

type eventEnvelope struct {
	Type EventKind    `json:"type"`
	Data DecodedEvent `json:"data"`
}

type eventRecordJSON struct {
	Event           eventEnvelope `json:"event"`
	TransactionHash string        `json:"transaction_hash"`
	BlockNumber     uint64        `json:"block_number"`
	Timestamp       uint64        `json:"timestamp"`
	PoolAddress     string        `json:"pool_address"`
}

// MarshalJSON nests the payload under event.type / event.data with a fixed
// field order, which the result set digest relies on.
func (r EventRecord) MarshalJSON() ([]byte, error) {
	var kind EventKind
	if r.Event != nil {
		kind = r.Event.Kind()
	}
	return json.Marshal(eventRecordJSON{
		Event:           eventEnvelope{Type: kind, Data: r.Event},
		TransactionHash: r.TransactionHash,
		BlockNumber:     r.BlockNumber,
		Timestamp:       r.Timestamp,
		PoolAddress:     r.PoolAddress,
	})
}

// ResultSet is the ordered event feed plus its SHA-256 digest.
type ResultSet struct {
	Data            []EventRecord `json:"data"`
	OverallDataHash string        `json:"overall_data_hash"`
}

// PoolCreatedRecord is a factory PoolCreated event with its block number.
type PoolCreatedRecord struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
	Pool        string `json:"pool"`
	BlockNumber uint64 `json:"block_number"`
}

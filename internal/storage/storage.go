package storage

import "poolDataFetcher/internal/model"

// Storage defines a sink for fetched events.
type Storage interface {
	PutRecords(records []model.EventRecord) error
	PutPoolCreated(records []model.PoolCreatedRecord) error
}

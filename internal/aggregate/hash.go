package aggregate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"poolDataFetcher/internal/model"
)

// DigestRecords returns the lowercase hex SHA-256 of the JSON encoding of
// records. A nil slice hashes the same as an empty one ("[]").
func DigestRecords(records []model.EventRecord) (string, error) {
	if records == nil {
		records = []model.EventRecord{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("marshal records: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ratesPayload is the persisted shape of a RateTable in the settings store.
type ratesPayload struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// EncodeRateTable serializes a table for the settings store.
func EncodeRateTable(t RateTable, fetchedAt time.Time) ([]byte, error) {
	if t.IsZero() {
		return nil, errors.New("rate table is empty")
	}
	return json.Marshal(ratesPayload{
		Base:      t.Base(),
		Rates:     t.rates,
		FetchedAt: fetchedAt.UTC(),
	})
}

// DecodeRateTable is the inverse of EncodeRateTable. The returned time is the
// fetchedAt stamp, zero for payloads written without one.
func DecodeRateTable(data []byte) (RateTable, time.Time, error) {
	var p ratesPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return RateTable{}, time.Time{}, fmt.Errorf("failed to unmarshal rate table: %w", err)
	}
	if len(p.Rates) == 0 {
		return RateTable{}, time.Time{}, errors.New("cached rate table has no rates")
	}
	return NewRateTable(p.Base, p.Rates), p.FetchedAt, nil
}

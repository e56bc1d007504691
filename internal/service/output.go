package service

import (
	"time"
)

// RefreshResult reports a forced refresh. Rates is always usable, even when
// Success is false.
type RefreshResult struct {
	Success bool               `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	AsOf    time.Time          `json:"asOf"`
	Source  string             `json:"source"`
	Message string             `json:"message"`
}

type ConvertResp struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Rate      float64 `json:"rate"`
	Converted float64 `json:"converted"`
	Formatted string  `json:"formatted"`
}

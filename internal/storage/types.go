package storage

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Setting is a single row of the settings store.
type Setting struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// RateTable maps currency codes to a multiplier against one unit of Base.
// It is immutable: the base always maps to exactly 1.0 and every other
// entry is finite and positive.
type RateTable struct {
	base  string
	rates map[string]float64
}

// NewRateTable builds a table for base. Codes are normalized and entries that
// are not finite and positive are dropped.
func NewRateTable(base string, rates map[string]float64) RateTable {
	base = NormalizeCode(base)
	if base == "" {
		base = DefaultBaseCurrency
	}
	m := make(map[string]float64, len(rates)+1)
	for code, rate := range rates {
		code = NormalizeCode(code)
		if code == "" || !validRate(rate) {
			continue
		}
		m[code] = rate
	}
	m[base] = 1.0
	return RateTable{base: base, rates: m}
}

func validRate(r float64) bool {
	return r > 0 && !math.IsNaN(r) && !math.IsInf(r, 0)
}

// Base returns the reference currency of the table.
func (t RateTable) Base() string {
	if t.base == "" {
		return DefaultBaseCurrency
	}
	return t.base
}

// Rate looks up the multiplier for code.
func (t RateTable) Rate(code string) (float64, bool) {
	r, ok := t.rates[NormalizeCode(code)]
	return r, ok
}

// Rates returns a copy of the underlying mapping.
func (t RateTable) Rates() map[string]float64 {
	out := make(map[string]float64, len(t.rates))
	for k, v := range t.rates {
		out[k] = v
	}
	return out
}

// Codes returns the currency codes in the table, sorted.
func (t RateTable) Codes() []string {
	codes := make([]string, 0, len(t.rates))
	for k := range t.rates {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}

func (t RateTable) Len() int { return len(t.rates) }

// IsZero reports whether the table was never constructed.
func (t RateTable) IsZero() bool { return t.rates == nil }

// CacheEntry is a rate table together with the instant it was captured.
type CacheEntry struct {
	Table      RateTable
	CapturedAt time.Time
}

// Age returns how old the entry is at now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CapturedAt)
}

// NormalizeCode trims and upper-cases a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

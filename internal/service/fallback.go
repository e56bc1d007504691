package service

import (
	"github.com/omerorhan/currency-service/internal/storage"
)

// defaultFallbackRates are approximate USD-based rates used when neither a
// live fetch nor a cached table is available.
var defaultFallbackRates = map[string]float64{
	"USD": 1.0,
	"AFN": 75.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"PKR": 278.0,
	"INR": 83.0,
	"IRR": 42000.0,
	"AED": 3.67,
	"SAR": 3.75,
	"CNY": 7.2,
	"JPY": 150.0,
	"TRY": 32.0,
}

// DefaultFallbackRates returns a copy of the built-in table.
func DefaultFallbackRates() map[string]float64 {
	out := make(map[string]float64, len(defaultFallbackRates))
	for k, v := range defaultFallbackRates {
		out[k] = v
	}
	return out
}

// Fallback is a static rate table. It never fails.
type Fallback struct {
	table storage.RateTable
}

// NewFallback builds the fallback table for base, applying overrides on top of
// the built-in rates. The built-in rates are USD based and are rebased when base
// is another known code; overrides are taken as relative to base. Overrides that
// are not finite and positive are dropped.
func NewFallback(base string, overrides map[string]float64) *Fallback {
	base = storage.NormalizeCode(base)
	rates := DefaultFallbackRates()
	if pivot, ok := rates[base]; ok && base != storage.DefaultBaseCurrency {
		for code, r := range rates {
			rates[code] = r / pivot
		}
	}
	for code, r := range overrides {
		rates[storage.NormalizeCode(code)] = r
	}
	return &Fallback{table: storage.NewRateTable(base, rates)}
}

func (f *Fallback) Get() storage.RateTable {
	return f.table
}

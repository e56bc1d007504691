package service

import (
	"fmt"

	"github.com/omerorhan/currency-service/internal/storage"
)

// ResolveRate returns the multiplier converting one unit of from into to using t.
// Missing codes count as 1.0.
func ResolveRate(t storage.RateTable, from, to string) float64 {
	r, _ := resolve(t, from, to)
	return r
}

// ResolveRateStrict is ResolveRate but reports ErrUnknownCurrency for a code
// the table does not carry.
func ResolveRateStrict(t storage.RateTable, from, to string) (float64, error) {
	r, missing := resolve(t, from, to)
	if missing != "" {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, missing)
	}
	return r, nil
}

// ConvertAmount applies ResolveRate to amount. Identity conversions return amount untouched.
func ConvertAmount(t storage.RateTable, amount float64, from, to string) float64 {
	if storage.NormalizeCode(from) == storage.NormalizeCode(to) {
		return amount
	}
	return amount * ResolveRate(t, from, to)
}

// resolve returns the rate and the first code missing from t, if any.
func resolve(t storage.RateTable, from, to string) (float64, string) {
	from = storage.NormalizeCode(from)
	to = storage.NormalizeCode(to)
	if from == to {
		return 1.0, ""
	}

	base := t.Base()
	lookup := func(code string) (float64, bool) {
		r, ok := t.Rate(code)
		if !ok {
			return 1.0, false
		}
		return r, true
	}

	switch {
	case from == base:
		r, ok := lookup(to)
		if !ok {
			return r, to
		}
		return r, ""
	case to == base:
		r, ok := lookup(from)
		if !ok {
			return 1.0, from
		}
		return 1.0 / r, ""
	default:
		rf, okFrom := lookup(from)
		rt, okTo := lookup(to)
		missing := ""
		if !okFrom {
			missing = from
		} else if !okTo {
			missing = to
		}
		return rt / rf, missing
	}
}

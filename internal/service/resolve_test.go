package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omerorhan/currency-service/internal/storage"
)

var resolveTable = storage.NewRateTable("USD", map[string]float64{
	"EUR": 0.9,
	"GBP": 0.8,
	"AFN": 75.0,
	"JPY": 150.0,
})

func TestResolveRate(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     float64
	}{
		{"identity", "EUR", "EUR", 1.0},
		{"identity of unknown code", "ZZZ", "ZZZ", 1.0},
		{"from base", "USD", "EUR", 0.9},
		{"from base, missing target", "USD", "ZZZ", 1.0},
		{"to base", "EUR", "USD", 1 / 0.9},
		{"to base, missing source", "ZZZ", "USD", 1.0},
		{"cross rate", "EUR", "GBP", 0.8 / 0.9},
		{"cross rate, missing source", "ZZZ", "GBP", 0.8},
		{"cross rate, missing target", "AFN", "ZZZ", 1 / 75.0},
		{"codes are normalized", " eur", "gbp ", 0.8 / 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ResolveRate(resolveTable, tt.from, tt.to), 1e-12)
		})
	}
}

func TestResolveRate_CrossConsistency(t *testing.T) {
	codes := resolveTable.Codes()
	for _, a := range codes {
		for _, b := range codes {
			if a == "USD" || b == "USD" {
				continue
			}
			want := ResolveRate(resolveTable, "USD", b) / ResolveRate(resolveTable, "USD", a)
			assert.InDelta(t, want, ResolveRate(resolveTable, a, b), 1e-12, "%s->%s", a, b)
		}
	}
}

func TestConvertAmount(t *testing.T) {
	amounts := []float64{0, 0.1, 1234.5678, -42.42, 1e12}

	for _, amount := range amounts {
		for _, code := range resolveTable.Codes() {
			assert.Equal(t, amount, ConvertAmount(resolveTable, amount, code, code))
		}
		there := ConvertAmount(resolveTable, amount, "EUR", "JPY")
		back := ConvertAmount(resolveTable, there, "JPY", "EUR")
		assert.InDelta(t, amount, back, 1e-6*(1+abs(amount)))
	}

	assert.Equal(t, 7500.0, ConvertAmount(resolveTable, 100, "USD", "AFN"))
}

func TestResolveRateStrict(t *testing.T) {
	r, err := ResolveRateStrict(resolveTable, "EUR", "GBP")
	require.NoError(t, err)
	assert.InDelta(t, 0.8/0.9, r, 1e-12)

	r, err = ResolveRateStrict(resolveTable, "ZZZ", "ZZZ")
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)

	for _, pair := range [][2]string{{"USD", "ZZZ"}, {"ZZZ", "USD"}, {"ZZZ", "EUR"}, {"EUR", "ZZZ"}} {
		_, err := ResolveRateStrict(resolveTable, pair[0], pair[1])
		assert.True(t, errors.Is(err, ErrUnknownCurrency), "%v", pair)
		assert.Contains(t, err.Error(), "ZZZ")
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

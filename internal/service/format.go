package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/omerorhan/currency-service/internal/storage"
)

// SymbolFor returns the display glyph for code, or code itself when unmapped.
func SymbolFor(code string) string {
	if sym, ok := currencySymbols[storage.NormalizeCode(code)]; ok {
		return sym
	}
	return code
}

// FormatAmount renders "<symbol> <amount>" with two decimals and comma
// grouping. Rounding is half away from zero on the shortest decimal
// representation of amount, so 0.005 becomes 0.01.
func FormatAmount(amount float64, code string) string {
	return SymbolFor(code) + " " + formatNumber(amount)
}

// DisplayName renders "<symbol> (<code>)".
func DisplayName(code string) string {
	code = storage.NormalizeCode(code)
	return SymbolFor(code) + " (" + code + ")"
}

func formatNumber(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return strconv.FormatFloat(amount, 'f', 2, 64)
	}
	d := decimal.NewFromFloat(amount).Round(2)

	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped string
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		grouped = humanize.Comma(n)
	} else {
		grouped = groupDigits(intPart)
	}
	if neg {
		grouped = "-" + grouped
	}
	return grouped + "." + frac
}

// groupDigits handles integer parts that overflow int64.
func groupDigits(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

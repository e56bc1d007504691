package service

import (
	"sort"

	"github.com/omerorhan/currency-service/internal/storage"
)

const DefaultRatesBaseUrl = "https://api.exchangerate-api.com/v4/latest"

// Table sources reported in RefreshResult and metrics.
const (
	SourceFreshCache = "fresh_cache"
	SourceLive       = "live"
	SourceStaleCache = "stale_cache"
	SourceFallback   = "fallback"
)

// supportedCurrencies are the codes offered in pickers.
var supportedCurrencies = map[string]string{
	"USD": "US Dollar",
	"AFN": "Afghan Afghani",
	"EUR": "Euro",
	"GBP": "British Pound",
	"PKR": "Pakistani Rupee",
	"INR": "Indian Rupee",
	"IRR": "Iranian Rial",
	"AED": "UAE Dirham",
	"SAR": "Saudi Riyal",
	"CNY": "Chinese Yuan",
	"JPY": "Japanese Yen",
	"TRY": "Turkish Lira",
}

var currencySymbols = map[string]string{
	"USD": "$",
	"AFN": "؋",
	"EUR": "€",
	"GBP": "£",
	"PKR": "₨",
	"INR": "₹",
	"IRR": "﷼",
	"AED": "د.إ",
	"SAR": "﷼",
	"CNY": "¥",
	"JPY": "¥",
	"TRY": "₺",
	"CAD": "C$",
	"AUD": "A$",
	"CHF": "CHF",
	"RUB": "₽",
	"KRW": "₩",
	"BRL": "R$",
	"ZAR": "R",
	"MXN": "Mex$",
	"NGN": "₦",
	"UAH": "₴",
	"ILS": "₪",
	"THB": "฿",
	"VND": "₫",
	"PHP": "₱",
	"PLN": "zł",
	"BDT": "৳",
	"KZT": "₸",
}

// Currency describes one supported currency.
type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// SupportedCurrencies lists the supported set ordered by code.
func SupportedCurrencies() []Currency {
	out := make([]Currency, 0, len(supportedCurrencies))
	for code, name := range supportedCurrencies {
		out = append(out, Currency{Code: code, Name: name, Symbol: SymbolFor(code)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// IsSupported reports whether code is part of the supported set.
func IsSupported(code string) bool {
	_, ok := supportedCurrencies[storage.NormalizeCode(code)]
	return ok
}

// CurrencyName returns the display name of a supported code.
func CurrencyName(code string) (string, bool) {
	name, ok := supportedCurrencies[storage.NormalizeCode(code)]
	return name, ok
}

package service

import "errors"

var (
	// ErrFetchUnavailable is returned by a RateSource when no usable table could be fetched.
	ErrFetchUnavailable = errors.New("exchange rate fetch unavailable")
	// ErrCacheUnavailable marks a settings store read or write failure.
	ErrCacheUnavailable = errors.New("exchange rate cache unavailable")
	// ErrUnknownCurrency is only returned in strict mode.
	ErrUnknownCurrency = errors.New("unknown currency code")
)

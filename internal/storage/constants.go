package storage

const (
	// DefaultBaseCurrency is the currency every RateTable is expressed against
	// unless configured otherwise.
	DefaultBaseCurrency = "USD"

	// RatesCacheKey is the settings key holding the last good rate table.
	RatesCacheKey = "exchange_rates_cache"

	// RefreshLockKey guards scheduled refreshes across processes.
	RefreshLockKey = "exchange_rates_refresh_lock"

	settingsTable = "settings"
)

package currency

import (
	"context"

	"github.com/omerorhan/currency-service/internal/service"
	"github.com/omerorhan/currency-service/internal/storage"
)

// Client provides a clean public API for the currency service
type Client struct {
	service *service.CurrencyService
}

// NewClient creates a new currency service client
func NewClient(options ...ServiceOption) (*Client, error) {
	svc, err := service.NewCurrencyService(options...)
	if err != nil {
		return nil, err
	}

	return &Client{
		service: svc,
	}, nil
}

// Initialize loads the first rate table and starts the refresh scheduler
func (c *Client) Initialize() error {
	return c.service.Initialize()
}

// Stop gracefully shuts down the service
func (c *Client) Stop() error {
	c.service.Stop()
	return nil
}

// GetCurrentRate returns how many units of to one unit of from buys.
func (c *Client) GetCurrentRate(ctx context.Context, from, to string) (float64, error) {
	return c.service.GetCurrentRate(ctx, from, to)
}

func (c *Client) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	return c.service.Convert(ctx, amount, from, to)
}

// Quote converts and formats in one call.
func (c *Client) Quote(ctx context.Context, req ConvertReq) (*ConvertResp, error) {
	return c.service.Quote(ctx, req)
}

// RefreshRates forces a live fetch
func (c *Client) RefreshRates(ctx context.Context) RefreshResult {
	return c.service.RefreshRates(ctx)
}

// Rates returns the table currently in use
func (c *Client) Rates(ctx context.Context) RateTable {
	return c.service.Rates(ctx)
}

func (c *Client) FormatAmount(amount float64, code string) string {
	return service.FormatAmount(amount, code)
}

func (c *Client) SymbolFor(code string) string {
	return service.SymbolFor(code)
}

func (c *Client) DisplayNameFor(code string) string {
	return service.DisplayName(code)
}

func (c *Client) IsSupported(code string) bool {
	return service.IsSupported(code)
}

func (c *Client) SupportedCurrencies() []Currency {
	return service.SupportedCurrencies()
}

// Service options (re-exported for convenience)
type ServiceOption = service.ServiceOption

// Re-export service options for clean API
var (
	WithStore                = service.WithStore
	WithRedisConfig          = service.WithRedisConfig
	WithStorage              = service.WithStorage
	WithStorageKeyPrefix     = service.WithStorageKeyPrefix
	WithRateSource           = service.WithRateSource
	WithRatesBaseUrl         = service.WithRatesBaseUrl
	WithBaseCurrency         = service.WithBaseCurrency
	WithHTTPTimeout          = service.WithHTTPTimeout
	WithFreshnessWindow      = service.WithFreshnessWindow
	WithRateLimit            = service.WithRateLimit
	WithFallbackRates        = service.WithFallbackRates
	WithStrictCodes          = service.WithStrictCodes
	WithRatesRefreshInterval = service.WithRatesRefreshInterval
	WithCacheKey             = service.WithCacheKey
	WithLogger               = service.WithLogger
	WithLogging              = service.WithLogging
	WithClock                = service.WithClock
)

// Re-export common types for convenience
type (
	Store         = storage.Store
	RateTable     = storage.RateTable
	RateSource    = service.RateSource
	RefreshResult = service.RefreshResult
	ConvertReq    = service.ConvertReq
	ConvertResp   = service.ConvertResp
	Currency      = service.Currency
)

// Re-export errors
var (
	ErrFetchUnavailable = service.ErrFetchUnavailable
	ErrUnknownCurrency  = service.ErrUnknownCurrency
)

// NewRateTable builds a table for base; see storage.NewRateTable.
func NewRateTable(base string, rates map[string]float64) RateTable {
	return storage.NewRateTable(base, rates)
}

// NewMemoryStore returns the in-process store used by default.
func NewMemoryStore() Store {
	return storage.NewMemoryStore()
}

package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/omerorhan/currency-service/internal/metrics"
	"github.com/omerorhan/currency-service/internal/storage"
)

// CurrencyService resolves exchange rates through a live source, a single-slot
// persistent cache and a static fallback, in that order of preference.
type CurrencyService struct {
	store     storage.Store
	ownsStore bool
	source    RateSource
	cache     *RateCache
	fallback  *Fallback
	scheduler *Scheduler
	opts      *ServiceOptions
	logger    *zap.Logger
	group     singleflight.Group
	mu        sync.RWMutex

	initialized bool
}

// ServiceOptions provides configuration for the currency service
type ServiceOptions struct {
	StorageDriver        string             `json:"storageDriver"`
	StorageDSN           string             `json:"storageDSN"`
	StorageKeyPrefix     string             `json:"storageKeyPrefix"`
	CacheKey             string             `json:"cacheKey"`
	RatesBaseUrl         string             `json:"ratesBaseUrl"`
	BaseCurrency         string             `json:"baseCurrency"`
	HTTPTimeout          time.Duration      `json:"httpTimeout"`
	FreshnessWindow      time.Duration      `json:"freshnessWindow"`
	RequestsPerMinute    int                `json:"requestsPerMinute"`
	BurstSize            int                `json:"burstSize"`
	FallbackRates        map[string]float64 `json:"fallbackRates"`
	StrictCodes          bool               `json:"strictCodes"`
	RatesRefreshInterval time.Duration      `json:"ratesRefreshInterval"`
	InitialLoadTimeout   time.Duration      `json:"initialLoadTimeout"`
	EnableLogging        bool               `json:"enableLogging"`

	Store  storage.Store    `json:"-"`
	Source RateSource       `json:"-"`
	Logger *zap.Logger      `json:"-"`
	Now    func() time.Time `json:"-"`
}

// DefaultServiceOptions returns sensible default options
func DefaultServiceOptions() *ServiceOptions {
	return &ServiceOptions{
		StorageDriver:      "memory",
		CacheKey:           storage.RatesCacheKey,
		RatesBaseUrl:       DefaultRatesBaseUrl,
		BaseCurrency:       storage.DefaultBaseCurrency,
		HTTPTimeout:        10 * time.Second,
		FreshnessWindow:    DefaultFreshnessWindow,
		RequestsPerMinute:  60,
		BurstSize:          10,
		InitialLoadTimeout: 30 * time.Second,
		EnableLogging:      true,
	}
}

// ServiceOption is a function that configures service options
type ServiceOption func(*ServiceOptions)

// WithStore uses an already opened store. The caller keeps ownership and closes it.
func WithStore(store storage.Store) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.Store = store
	}
}

// WithRedisConfig stores the rate cache in Redis at addr
func WithRedisConfig(addr string) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.StorageDriver = "redis"
		opts.StorageDSN = addr
	}
}

// WithStorage selects a storage driver (memory, redis, sqlite, postgres) and its DSN.
func WithStorage(driver, dsn string) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.StorageDriver = driver
		opts.StorageDSN = dsn
	}
}

// WithStorageKeyPrefix namespaces keys in stores that support it (redis).
func WithStorageKeyPrefix(prefix string) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.StorageKeyPrefix = prefix
	}
}

// WithRateSource replaces the HTTP source.
func WithRateSource(src RateSource) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.Source = src
	}
}

func WithRatesBaseUrl(url string) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.RatesBaseUrl = url
	}
}

func WithBaseCurrency(code string) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.BaseCurrency = storage.NormalizeCode(code)
	}
}

func WithHTTPTimeout(d time.Duration) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.HTTPTimeout = d
	}
}

// WithFreshnessWindow sets how long a cached table is served without a live call.
func WithFreshnessWindow(d time.Duration) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.FreshnessWindow = d
	}
}

// WithRateLimit throttles calls to the live source.
func WithRateLimit(requestsPerMinute, burst int) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.RequestsPerMinute = requestsPerMinute
		opts.BurstSize = burst
	}
}

// WithFallbackRates overrides or extends the built-in fallback table.
func WithFallbackRates(rates map[string]float64) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.FallbackRates = rates
	}
}

// WithStrictCodes makes codes missing from the table an ErrUnknownCurrency
// instead of a 1.0 multiplier.
func WithStrictCodes(strict bool) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.StrictCodes = strict
	}
}

func WithRatesRefreshInterval(interval time.Duration) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.RatesRefreshInterval = interval
	}
}

func WithCacheKey(key string) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.CacheKey = key
	}
}

func WithLogger(l *zap.Logger) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.Logger = l
	}
}

// WithLogging enables/disables logging
func WithLogging(enabled bool) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.EnableLogging = enabled
	}
}

// WithClock replaces time.Now for freshness decisions. A store opened by the
// service stamps its rows with the same clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.Now = now
	}
}

// NewCurrencyService creates a currency service and opens its store.
func NewCurrencyService(options ...ServiceOption) (*CurrencyService, error) {
	opts := DefaultServiceOptions()
	for _, option := range options {
		option(opts)
	}
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = storage.DefaultBaseCurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.EnableLogging {
		logger = zap.NewNop()
	}
	logger = logger.Named("currency")

	store, owns := opts.Store, false
	if store == nil {
		ctx, cancel := context.WithTimeout(context.Background(), opts.InitialLoadTimeout)
		defer cancel()
		var err error
		store, err = storage.Open(ctx, storage.Config{
			Driver:    opts.StorageDriver,
			DSN:       opts.StorageDSN,
			KeyPrefix: opts.StorageKeyPrefix,
			Clock:     opts.Now,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open rate cache store: %w", err)
		}
		owns = true
	}

	source := opts.Source
	if source == nil {
		source = NewHTTPRateSource(opts.RatesBaseUrl,
			WithHTTPClient(&http.Client{Timeout: opts.HTTPTimeout}),
			WithSourceRateLimit(opts.RequestsPerMinute, opts.BurstSize),
			WithSourceLogger(logger),
		)
	}

	cache := NewRateCache(store, opts.CacheKey, opts.FreshnessWindow, logger)
	cache.now = opts.Now

	return &CurrencyService{
		store:     store,
		ownsStore: owns,
		source:    source,
		cache:     cache,
		fallback:  NewFallback(opts.BaseCurrency, opts.FallbackRates),
		opts:      opts,
		logger:    logger,
	}, nil
}

// Initialize warms the cache and starts the refresh scheduler when configured.
func (cs *CurrencyService) Initialize() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.initialized {
		return nil
	}

	cs.logger.Info("🚀 Initializing Currency Service...",
		zap.String("base", cs.opts.BaseCurrency),
		zap.String("source", cs.source.Name()),
		zap.Duration("freshnessWindow", cs.cache.Window()))

	ctx, cancel := context.WithTimeout(context.Background(), cs.opts.InitialLoadTimeout)
	defer cancel()
	a := cs.acquire(ctx)
	cs.logger.Info("📊 Initial rate table loaded",
		zap.String("origin", a.source), zap.Int("currencies", a.table.Len()))

	if cs.opts.RatesRefreshInterval > 0 {
		locker, _ := cs.store.(storage.Locker)
		cs.scheduler = NewScheduler(cs, locker, cs.opts.RatesRefreshInterval, cs.logger)
		if err := cs.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start refresh scheduler: %w", err)
		}
	}

	cs.initialized = true
	cs.logger.Info("✅ Currency Service initialized successfully")
	return nil
}

// Stop gracefully shuts down the service
func (cs *CurrencyService) Stop() {
	cs.logger.Info("🛑 Stopping Currency Service...")

	cs.mu.Lock()
	sched := cs.scheduler
	cs.scheduler = nil
	cs.initialized = false
	cs.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	if cs.ownsStore {
		if err := cs.store.Close(); err != nil {
			cs.logger.Warn("⚠️ failed to close store", zap.Error(err))
		}
	}

	cs.logger.Info("✅ Currency Service stopped")
}

// Rates returns the best available table. It never fails.
func (cs *CurrencyService) Rates(ctx context.Context) storage.RateTable {
	return cs.acquire(ctx).table
}

// GetCurrentRate returns the multiplier converting one unit of from into to.
// Identity pairs are answered without acquiring a table.
func (cs *CurrencyService) GetCurrentRate(ctx context.Context, from, to string) (float64, error) {
	if storage.NormalizeCode(from) == storage.NormalizeCode(to) {
		return 1.0, nil
	}
	return cs.rateIn(cs.Rates(ctx), from, to)
}

// Convert converts amount from one currency to another. Identity conversions
// return amount untouched.
func (cs *CurrencyService) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	if storage.NormalizeCode(from) == storage.NormalizeCode(to) {
		return amount, nil
	}
	table := cs.Rates(ctx)
	if !cs.opts.StrictCodes {
		return ConvertAmount(table, amount, from, to), nil
	}
	r, err := ResolveRateStrict(table, from, to)
	if err != nil {
		return 0, err
	}
	return amount * r, nil
}

// Quote converts req and renders the result for display. Rate and converted
// amount come from the same table.
func (cs *CurrencyService) Quote(ctx context.Context, req ConvertReq) (*ConvertResp, error) {
	rate, converted := 1.0, req.Amount
	if storage.NormalizeCode(req.From) != storage.NormalizeCode(req.To) {
		var err error
		rate, err = cs.rateIn(cs.Rates(ctx), req.From, req.To)
		if err != nil {
			return nil, err
		}
		converted = req.Amount * rate
	}
	to := storage.NormalizeCode(req.To)
	return &ConvertResp{
		From:      storage.NormalizeCode(req.From),
		To:        to,
		Amount:    req.Amount,
		Rate:      rate,
		Converted: converted,
		Formatted: FormatAmount(converted, to),
	}, nil
}

// RefreshRates forces a live fetch. On failure the cached or fallback table is
// still returned with Success false.
func (cs *CurrencyService) RefreshRates(ctx context.Context) RefreshResult {
	a := cs.fetchOrFallback(ctx)

	res := RefreshResult{
		Success: a.fetchErr == nil,
		Base:    a.table.Base(),
		Rates:   a.table.Rates(),
		AsOf:    a.asOf,
		Source:  a.source,
	}
	if res.Success {
		res.Message = "Exchange rates refreshed successfully"
		cs.logger.Info("✅ Exchange rates refreshed successfully", zap.Int("currencies", a.table.Len()))
	} else {
		res.Message = fmt.Sprintf("Failed to fetch live rates, using %s rates: %v", a.source, a.fetchErr)
	}
	return res
}

func (cs *CurrencyService) rateIn(table storage.RateTable, from, to string) (float64, error) {
	if cs.opts.StrictCodes {
		return ResolveRateStrict(table, from, to)
	}
	r := ResolveRate(table, from, to)
	cs.logger.Debug("resolved rate", zap.String("from", from), zap.String("to", to), zap.Float64("rate", r))
	return r, nil
}

type acquisition struct {
	table    storage.RateTable
	source   string
	asOf     time.Time
	fetchErr error
}

// acquire serves a fresh cache entry directly and otherwise goes live.
func (cs *CurrencyService) acquire(ctx context.Context) acquisition {
	if entry, ok := cs.readCache(ctx); ok && cs.cache.IsFresh(entry, cs.opts.Now()) {
		metrics.TableSourceTotal.WithLabelValues(SourceFreshCache).Inc()
		return acquisition{table: entry.Table, source: SourceFreshCache, asOf: entry.CapturedAt}
	}
	return cs.fetchOrFallback(ctx)
}

// fetchOrFallback coalesces concurrent callers into one live fetch per cache key.
// The shared fetch outlives the caller that started it, bounded by HTTPTimeout.
func (cs *CurrencyService) fetchOrFallback(ctx context.Context) acquisition {
	v, _, _ := cs.group.Do(cs.cache.Key(), func() (interface{}, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if cs.opts.HTTPTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, cs.opts.HTTPTimeout)
			defer cancel()
		}
		return cs.fetchLive(fetchCtx), nil
	})
	a := v.(acquisition)
	metrics.TableSourceTotal.WithLabelValues(a.source).Inc()
	return a
}

func (cs *CurrencyService) fetchLive(ctx context.Context) acquisition {
	table, err := cs.source.Fetch(ctx, cs.opts.BaseCurrency)
	if err == nil {
		now := cs.opts.Now()
		if !cs.cache.Write(ctx, table) {
			cs.logger.Warn("⚠️ serving live rates without caching them")
		}
		return acquisition{table: table, source: SourceLive, asOf: now}
	}

	cs.logger.Warn("⚠️ live rate fetch failed", zap.String("source", cs.source.Name()), zap.Error(err))

	if entry, ok := cs.readCache(ctx); ok {
		origin := SourceStaleCache
		if cs.cache.IsFresh(entry, cs.opts.Now()) {
			origin = SourceFreshCache
		}
		cs.logger.Info("📥 using cached rates", zap.String("origin", origin), zap.Time("capturedAt", entry.CapturedAt))
		return acquisition{table: entry.Table, source: origin, asOf: entry.CapturedAt, fetchErr: err}
	}

	cs.logger.Warn("⚠️ no cached rates, using static fallback table")
	return acquisition{table: cs.fallback.Get(), source: SourceFallback, asOf: cs.opts.Now(), fetchErr: err}
}

// readCache ignores entries captured for another base currency.
func (cs *CurrencyService) readCache(ctx context.Context) (*storage.CacheEntry, bool) {
	entry, ok := cs.cache.Read(ctx)
	if !ok {
		return nil, false
	}
	if entry.Table.Base() != cs.opts.BaseCurrency {
		cs.logger.Debug("cached table has a different base, ignoring",
			zap.String("cached", entry.Table.Base()), zap.String("want", cs.opts.BaseCurrency))
		return nil, false
	}
	return entry, true
}

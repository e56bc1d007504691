package config

import (
	"time"
)

type Log struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

type ExchangeRate struct {
	ApiUrl            string             `envconfig:"API_URL" default:"https://api.exchangerate-api.com/v4/latest"`
	BaseCurrency      string             `envconfig:"BASE_CURRENCY" default:"USD"`
	HTTPTimeout       time.Duration      `envconfig:"HTTP_TIMEOUT" default:"10s"`
	FreshnessWindow   time.Duration      `envconfig:"FRESHNESS_WINDOW" default:"1h"`
	RequestsPerMinute int                `envconfig:"REQUESTS_PER_MINUTE" default:"60"`
	BurstSize         int                `envconfig:"BURST_SIZE" default:"10"`
	StrictCodes       bool               `envconfig:"STRICT_CODES" default:"false"`
	FallbackRates     map[string]float64 `envconfig:"FALLBACK_RATES"`
	CacheKey          string             `envconfig:"CACHE_KEY" default:"exchange_rates_cache"`
}

type Storage struct {
	Driver    string `envconfig:"DRIVER" default:"memory"`
	DSN       string `envconfig:"DSN"`
	KeyPrefix string `envconfig:"KEY_PREFIX" default:""`
}

type Redis struct {
	URL string `envconfig:"URL" default:"redis://localhost:6379/0"`
}

type Scheduler struct {
	Interval time.Duration `envconfig:"INTERVAL" default:"0"`
}

type Server struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"8080"`
}

// App is the process configuration, read from CURRENCY_* variables.
type App struct {
	Env       string       `envconfig:"APP_ENV" default:"development"`
	Log       Log          `envconfig:"LOG"`
	Exchange  ExchangeRate `envconfig:"EXCHANGE_RATE"`
	Storage   Storage      `envconfig:"STORAGE"`
	Redis     Redis        `envconfig:"REDIS"`
	Scheduler Scheduler    `envconfig:"SCHEDULER"`
	Server    Server       `envconfig:"SERVER"`
}

// StorageDSN returns the DSN for the configured driver. The redis driver
// falls back to REDIS_URL.
func (a *App) StorageDSN() string {
	if a.Storage.Driver == "redis" && a.Storage.DSN == "" {
		return a.Redis.URL
	}
	return a.Storage.DSN
}

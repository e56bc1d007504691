package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/omerorhan/currency-service/internal/metrics"
	"github.com/omerorhan/currency-service/internal/storage"
)

// RateSource fetches a live rate table relative to a base currency.
type RateSource interface {
	Fetch(ctx context.Context, base string) (storage.RateTable, error)
	Name() string
}

// HTTPRateSource talks to an exchangerate-api compatible endpoint:
// GET {baseURL}/{BASE} returning {"rates": {"EUR": 0.92, ...}}.
type HTTPRateSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// HTTPSourceOption configures an HTTPRateSource.
type HTTPSourceOption func(*HTTPRateSource)

// WithHTTPClient replaces the HTTP client, including its timeout.
func WithHTTPClient(c *http.Client) HTTPSourceOption {
	return func(s *HTTPRateSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithSourceRateLimit throttles outbound calls to requestsPerMinute with the given burst.
// A non-positive requestsPerMinute disables throttling.
func WithSourceRateLimit(requestsPerMinute, burst int) HTTPSourceOption {
	return func(s *HTTPRateSource) {
		if requestsPerMinute <= 0 {
			s.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
}

func WithSourceLogger(l *zap.Logger) HTTPSourceOption {
	return func(s *HTTPRateSource) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewHTTPRateSource creates a source for baseURL. An empty baseURL uses DefaultRatesBaseUrl.
func NewHTTPRateSource(baseURL string, options ...HTTPSourceOption) *HTTPRateSource {
	if baseURL == "" {
		baseURL = DefaultRatesBaseUrl
	}
	s := &HTTPRateSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *HTTPRateSource) Name() string { return "exchangerate-api" }

// Fetch performs a single GET. Every failure is reported as ErrFetchUnavailable.
func (s *HTTPRateSource) Fetch(ctx context.Context, base string) (storage.RateTable, error) {
	base = storage.NormalizeCode(base)
	if base == "" {
		base = storage.DefaultBaseCurrency
	}

	if s.limiter != nil && !s.limiter.Allow() {
		metrics.FetchTotal.WithLabelValues(s.Name(), "rate_limited").Inc()
		return storage.RateTable{}, fmt.Errorf("%w: rate limited", ErrFetchUnavailable)
	}

	start := time.Now()
	table, err := s.fetch(ctx, base)
	metrics.FetchDurationSeconds.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FetchTotal.WithLabelValues(s.Name(), "error").Inc()
		s.logger.Debug("rate fetch failed", zap.String("base", base), zap.Error(err))
		return storage.RateTable{}, err
	}
	metrics.FetchTotal.WithLabelValues(s.Name(), "ok").Inc()
	return table, nil
}

func (s *HTTPRateSource) fetch(ctx context.Context, base string) (storage.RateTable, error) {
	url := s.baseURL + "/" + base
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return storage.RateTable{}, fmt.Errorf("%w: %v", ErrFetchUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return storage.RateTable{}, fmt.Errorf("%w: %v", ErrFetchUnavailable, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return storage.RateTable{}, fmt.Errorf("%w: read body: %v", ErrFetchUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return storage.RateTable{}, fmt.Errorf("%w: rates http %d", ErrFetchUnavailable, resp.StatusCode)
	}
	return parseRatesBody(base, b)
}

// parseRatesBody extracts the rates object. Non-numeric entries are skipped.
func parseRatesBody(base string, body []byte) (storage.RateTable, error) {
	if !gjson.ValidBytes(body) {
		return storage.RateTable{}, fmt.Errorf("%w: invalid json body", ErrFetchUnavailable)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return storage.RateTable{}, fmt.Errorf("%w: body is not an object", ErrFetchUnavailable)
	}
	ratesField := doc.Get("rates")
	if !ratesField.IsObject() {
		return storage.RateTable{}, fmt.Errorf("%w: missing rates object", ErrFetchUnavailable)
	}

	rates := make(map[string]float64)
	usable := 0
	ratesField.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			return true
		}
		v := value.Float()
		if v > 0 && !math.IsInf(v, 0) {
			rates[key.String()] = v
			usable++
		}
		return true
	})
	if usable == 0 {
		return storage.RateTable{}, fmt.Errorf("%w: no usable rates", ErrFetchUnavailable)
	}
	return storage.NewRateTable(base, rates), nil
}

var _ RateSource = (*HTTPRateSource)(nil)

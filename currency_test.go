package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRatesAPI(t *testing.T, healthy *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"USD":1,"EUR":0.9,"GBP":0.8,"JPY":150}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_EndToEnd(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := newRatesAPI(t, &healthy)

	client, err := NewClient(
		WithRatesBaseUrl(srv.URL),
		WithHTTPTimeout(time.Second),
		WithRateLimit(0, 0),
		WithLogging(false),
	)
	require.NoError(t, err)
	require.NoError(t, client.Initialize())
	defer client.Stop()

	ctx := context.Background()
	rate, err := client.GetCurrentRate(ctx, "EUR", "GBP")
	require.NoError(t, err)
	assert.InDelta(t, 0.8889, rate, 1e-4)

	res := client.RefreshRates(ctx)
	assert.True(t, res.Success)

	// the API goes down; the cached table keeps serving
	healthy.Store(false)
	res = client.RefreshRates(ctx)
	assert.False(t, res.Success)
	assert.Equal(t, 0.9, res.Rates["EUR"])

	jpy, err := client.Convert(ctx, 6666, "USD", "JPY")
	require.NoError(t, err)
	assert.Equal(t, "¥ 999,900.00", client.FormatAmount(jpy, "JPY"))
}

func TestClient_FallbackWithoutNetwork(t *testing.T) {
	var healthy atomic.Bool
	srv := newRatesAPI(t, &healthy)

	client, err := NewClient(WithRatesBaseUrl(srv.URL), WithStore(NewMemoryStore()), WithLogging(false))
	require.NoError(t, err)
	require.NoError(t, client.Initialize())
	defer client.Stop()

	got, err := client.Convert(context.Background(), 100, "USD", "AFN")
	require.NoError(t, err)
	assert.Equal(t, 7500.0, got)
}

func TestClient_Display(t *testing.T) {
	client, err := NewClient(WithLogging(false))
	require.NoError(t, err)
	defer client.Stop()

	assert.Equal(t, "$ 1,234.50", client.FormatAmount(1234.5, "USD"))
	assert.Equal(t, "ZZZ", client.SymbolFor("ZZZ"))
	assert.Equal(t, "€ (EUR)", client.DisplayNameFor("EUR"))
	assert.True(t, client.IsSupported("afn"))
	assert.NotEmpty(t, client.SupportedCurrencies())

	rate, err := client.GetCurrentRate(context.Background(), "USD", "usd")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

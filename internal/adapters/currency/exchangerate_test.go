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

	"github.com/taskmaster/assistant/internal/adapters/cache"
	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

func pairServer(t *testing.T, hits *int32, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/v6/test-key/pair/USD/EUR", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConvert(t *testing.T) {
	var hits int32
	srv := pairServer(t, &hits, `{"result":"success","base_code":"USD","target_code":"EUR","conversion_rate":0.92}`, http.StatusOK)

	p := New(config.CurrencyConfig{APIKey: "test-key", BaseURL: srv.URL, Timeout: time.Second}, nil, logger.NewNop())
	conv, err := p.Convert(context.Background(), 100, "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, &ports.Conversion{
		Amount:          100,
		FromCurrency:    "USD",
		ToCurrency:      "EUR",
		ConvertedAmount: 92,
		Rate:            0.92,
	}, conv)
	assert.EqualValues(t, 1, hits)
}

func TestConvert_UsesCache(t *testing.T) {
	var hits int32
	srv := pairServer(t, &hits, `{"result":"success","conversion_rate":0.5}`, http.StatusOK)

	p := New(config.CurrencyConfig{APIKey: "test-key", BaseURL: srv.URL, CacheTTL: time.Hour}, cache.NewMemory(), logger.NewNop())
	for _, amount := range []float64{10, 20, 30} {
		conv, err := p.Convert(context.Background(), amount, "USD", "EUR")
		require.NoError(t, err)
		assert.Equal(t, amount/2, conv.ConvertedAmount)
	}
	assert.EqualValues(t, 1, hits)
}

func TestConvert_SameCurrency(t *testing.T) {
	p := New(config.CurrencyConfig{}, nil, logger.NewNop())
	conv, err := p.Convert(context.Background(), 12.5, "GBP", "GBP")
	require.NoError(t, err)
	assert.Equal(t, 12.5, conv.ConvertedAmount)
	assert.Equal(t, 1.0, conv.Rate)
}

func TestConvert_APIError(t *testing.T) {
	var hits int32
	srv := pairServer(t, &hits, `{"result":"error","error-type":"unsupported-code"}`, http.StatusNotFound)

	p := New(config.CurrencyConfig{APIKey: "test-key", BaseURL: srv.URL}, cache.NewMemory(), logger.NewNop())
	_, err := p.Convert(context.Background(), 1, "USD", "EUR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported-code")
}

func TestConvert_NotConfigured(t *testing.T) {
	p := New(config.CurrencyConfig{}, nil, logger.NewNop())
	_, err := p.Convert(context.Background(), 1, "USD", "EUR")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestConvert_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	p := New(config.CurrencyConfig{APIKey: "SUPERSECRETKEY", BaseURL: base, Timeout: time.Second}, nil, logger.NewNop())
	_, err := p.Convert(context.Background(), 10, "USD", "EUR")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SUPERSECRETKEY")
	assert.NotContains(t, err.Error(), "/v6/")
}

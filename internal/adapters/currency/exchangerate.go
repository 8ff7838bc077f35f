// Package currency converts amounts using exchangerate-api.com pair rates.
package currency

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

const defaultBaseURL = "https://v6.exchangerate-api.com"

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("exchange rate API key is not configured")

// ExchangeRateAPI implements ports.RateProvider. Pair rates are cached when a
// cache is supplied; the amount is applied locally so one cached rate serves
// every conversion of that pair.
type ExchangeRateAPI struct {
	client *resty.Client
	apiKey string
	cache  ports.CacheRepository
	ttl    time.Duration
	logger *logger.Logger
}

// New creates the provider. cache may be nil.
func New(cfg config.CurrencyConfig, cache ports.CacheRepository, log *logger.Logger) *ExchangeRateAPI {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &ExchangeRateAPI{
		client: c,
		apiKey: cfg.APIKey,
		cache:  cache,
		ttl:    cfg.CacheTTL,
		logger: log.WithComponent("currency"),
	}
}

type pairResponse struct {
	Result         string  `json:"result"`
	ErrorType      string  `json:"error-type"`
	BaseCode       string  `json:"base_code"`
	TargetCode     string  `json:"target_code"`
	ConversionRate float64 `json:"conversion_rate"`
}

type cachedRate struct {
	Rate float64 `json:"rate"`
}

// Convert converts amount from one currency to another
func (e *ExchangeRateAPI) Convert(ctx context.Context, amount float64, from, to string) (*ports.Conversion, error) {
	rate, err := e.Rate(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &ports.Conversion{
		Amount:          amount,
		FromCurrency:    from,
		ToCurrency:      to,
		ConvertedAmount: round(amount*rate, 6),
		Rate:            rate,
	}, nil
}

// Rate returns the from→to rate, from cache when possible
func (e *ExchangeRateAPI) Rate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}

	key := cacheKey(from, to)
	if e.cache != nil {
		var hit cachedRate
		err := e.cache.Get(ctx, key, &hit)
		if err == nil && hit.Rate > 0 {
			return hit.Rate, nil
		}
		if err != nil && !errors.Is(err, ports.ErrCacheMiss) {
			e.logger.Warnw("Rate cache read failed", "key", key, "error", err)
		}
	}

	rate, err := e.fetch(ctx, from, to)
	if err != nil {
		return 0, err
	}

	if e.cache != nil && e.ttl > 0 {
		if err := e.cache.Set(ctx, key, cachedRate{Rate: rate}, e.ttl); err != nil {
			e.logger.Warnw("Rate cache write failed", "key", key, "error", err)
		}
	}
	return rate, nil
}

func (e *ExchangeRateAPI) fetch(ctx context.Context, from, to string) (float64, error) {
	if e.apiKey == "" {
		return 0, ErrNotConfigured
	}

	var out pairResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"key":  e.apiKey,
			"from": from,
			"to":   to,
		}).
		SetResult(&out).
		SetError(&out).
		Get("/v6/{key}/pair/{from}/{to}")
	if err != nil {
		// The request URL carries the API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return 0, fmt.Errorf("exchange rate request: %w", err)
	}

	if out.Result != "success" {
		if out.ErrorType != "" {
			return 0, fmt.Errorf("exchange rate API error: %s", out.ErrorType)
		}
		return 0, fmt.Errorf("exchange rate API status %d", resp.StatusCode())
	}
	if resp.StatusCode() != http.StatusOK || out.ConversionRate <= 0 {
		return 0, fmt.Errorf("exchange rate API returned no rate for %s/%s", from, to)
	}

	return out.ConversionRate, nil
}

func cacheKey(from, to string) string {
	return "fx:" + from + ":" + to
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

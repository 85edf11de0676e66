package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/pipe199x/crypto-analytics/internal/module/shared"
)

// CoinSnapshot is the raw /coins/{id} payload, trimmed to the fields the
// transform layer consumes.
type CoinSnapshot struct {
	ID         string `json:"id"`
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	MarketData struct {
		CurrentPrice map[string]float64 `json:"current_price"`
		MarketCap    map[string]float64 `json:"market_cap"`
		TotalVolume  map[string]float64 `json:"total_volume"`
	} `json:"market_data"`
}

// MarketChart is the raw /coins/{id}/market_chart payload: parallel series of
// [epochMillis, value] pairs, co-indexed by the provider.
type MarketChart struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

type CoinGeckoService interface {
	FetchCoinSnapshot(ctx context.Context, coingeckoID string) (*CoinSnapshot, error)
	FetchMarketChart(ctx context.Context, coingeckoID string, days int) (*MarketChart, error)
}

type coinGeckoService struct {
	config      *koanf.Koanf
	logger      zerolog.Logger
	baseURL     string
	apiKey      string
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func NewCoinGeckoService(cfg *koanf.Koanf, logger zerolog.Logger) CoinGeckoService {
	return &coinGeckoService{
		config:      cfg,
		logger:      logger,
		baseURL:     cfg.String("coingecko.base-url"),
		apiKey:      cfg.String("coingecko.api-key"),
		maxAttempts: cfg.Int("etl.retry.max-attempts"),
		baseDelay:   cfg.Duration("etl.retry.base-delay"),
		maxDelay:    cfg.Duration("etl.retry.max-delay"),
	}
}

func (s *coinGeckoService) headers() map[string]string {
	headers := map[string]string{
		"accept": "application/json",
	}
	if s.apiKey != "" {
		headers["x-cg-pro-api-key"] = s.apiKey
	}
	return headers
}

// retryable covers transport failures (status 0) and provider infrastructure
// statuses. A non-2xx that isn't infrastructure trouble fails immediately, as
// does a well-formed response with missing fields.
func retryable(statusCode int) bool {
	return statusCode == 0 || statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func (s *coinGeckoService) fetch(ctx context.Context, url string) ([]byte, error) {
	delay := s.baseDelay
	for attempt := 1; ; attempt++ {
		body, statusCode, err := shared.DoRequest(nil, url, s.headers(), 0)
		if err == nil {
			return body, nil
		}

		if !retryable(statusCode) || attempt >= s.maxAttempts {
			return nil, fmt.Errorf("request to %s failed after %d attempt(s): %v", url, attempt, err)
		}

		s.logger.Warn().Err(err).Msgf("Network error when fetching %s, retrying in %s (%d/%d)", url, delay, attempt, s.maxAttempts)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > s.maxDelay {
			delay = s.maxDelay
		}
	}
}

func (s *coinGeckoService) FetchCoinSnapshot(ctx context.Context, coingeckoID string) (*CoinSnapshot, error) {
	url := fmt.Sprintf("%s/coins/%s", s.baseURL, coingeckoID)

	body, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var snapshot CoinSnapshot
	if err := shared.ParseJSONResponse(body, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.ID == "" {
		return nil, fmt.Errorf("'id' key not found in response for %s", coingeckoID)
	}
	return &snapshot, nil
}

func (s *coinGeckoService) FetchMarketChart(ctx context.Context, coingeckoID string, days int) (*MarketChart, error) {
	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily", s.baseURL, coingeckoID, days)

	body, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var chart MarketChart
	if err := shared.ParseJSONResponse(body, &chart); err != nil {
		return nil, err
	}
	if chart.Prices == nil {
		return nil, fmt.Errorf("'prices' key not found in historical data for %s", coingeckoID)
	}
	return &chart, nil
}

package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipe199x/crypto-analytics/internal/module/crypto/service"
	"github.com/pipe199x/crypto-analytics/internal/module/shared"
)

func setupCoinGeckoService(baseURL string, maxAttempts int) service.CoinGeckoService {
	cfg := shared.SetupTestCfg(map[string]interface{}{
		"coingecko.base-url":     baseURL,
		"etl.retry.max-attempts": maxAttempts,
		"etl.retry.base-delay":   time.Millisecond,
		"etl.retry.max-delay":    2 * time.Millisecond,
	})
	return service.NewCoinGeckoService(cfg, zerolog.New(nil))
}

func TestFetchCoinSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin", r.URL.Path)
		w.Write([]byte(`{
			"id": "bitcoin",
			"symbol": "btc",
			"name": "Bitcoin",
			"market_data": {
				"current_price": {"usd": 50000},
				"market_cap": {"usd": 1000000},
				"total_volume": {"usd": 5000}
			}
		}`))
	}))
	defer server.Close()

	coinGeckoService := setupCoinGeckoService(server.URL, 1)
	snapshot, err := coinGeckoService.FetchCoinSnapshot(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", snapshot.ID)
	assert.Equal(t, "btc", snapshot.Symbol)
	assert.Equal(t, 50000.0, snapshot.MarketData.CurrentPrice["usd"])
}

func TestFetchCoinSnapshotMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol": "btc"}`))
	}))
	defer server.Close()

	coinGeckoService := setupCoinGeckoService(server.URL, 1)
	snapshot, err := coinGeckoService.FetchCoinSnapshot(context.Background(), "bitcoin")
	require.Error(t, err)
	assert.Nil(t, snapshot)
	assert.Contains(t, err.Error(), "'id' key not found")
}

func TestFetchRetriesOnServerError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin"}`))
	}))
	defer server.Close()

	coinGeckoService := setupCoinGeckoService(server.URL, 5)
	snapshot, err := coinGeckoService.FetchCoinSnapshot(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", snapshot.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestFetchGivesUpAfterMaxAttempts(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	coinGeckoService := setupCoinGeckoService(server.URL, 2)
	_, err := coinGeckoService.FetchCoinSnapshot(context.Background(), "bitcoin")
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	coinGeckoService := setupCoinGeckoService(server.URL, 5)
	_, err := coinGeckoService.FetchCoinSnapshot(context.Background(), "unknown-coin")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestFetchMarketChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "5", r.URL.Query().Get("days"))
		assert.Equal(t, "daily", r.URL.Query().Get("interval"))
		w.Write([]byte(`{
			"prices": [[1700000000000, 50000], [1700086400000, 51000]],
			"market_caps": [[1700000000000, 1000000], [1700086400000, 1010000]],
			"total_volumes": [[1700000000000, 5000], [1700086400000, 5100]]
		}`))
	}))
	defer server.Close()

	coinGeckoService := setupCoinGeckoService(server.URL, 1)
	chart, err := coinGeckoService.FetchMarketChart(context.Background(), "bitcoin", 5)
	require.NoError(t, err)
	require.Len(t, chart.Prices, 2)
	assert.Equal(t, 51000.0, chart.Prices[1][1])
}

func TestFetchMarketChartMissingPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"market_caps": [], "total_volumes": []}`))
	}))
	defer server.Close()

	coinGeckoService := setupCoinGeckoService(server.URL, 1)
	chart, err := coinGeckoService.FetchMarketChart(context.Background(), "bitcoin", 5)
	require.Error(t, err)
	assert.Nil(t, chart)
	assert.Contains(t, err.Error(), "'prices' key not found")
}

package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipe199x/crypto-analytics/internal/database/schema"
	"github.com/pipe199x/crypto-analytics/internal/module/crypto/repository"
	"github.com/pipe199x/crypto-analytics/internal/module/crypto/service"
	"github.com/pipe199x/crypto-analytics/internal/module/shared"
)

type stubCoinGecko struct {
	snapshots map[string]*service.CoinSnapshot
	charts    map[string]*service.MarketChart
}

func (s *stubCoinGecko) FetchCoinSnapshot(ctx context.Context, coingeckoID string) (*service.CoinSnapshot, error) {
	snapshot, ok := s.snapshots[coingeckoID]
	if !ok {
		return nil, fmt.Errorf("request to /coins/%s failed after 1 attempt(s)", coingeckoID)
	}
	return snapshot, nil
}

func (s *stubCoinGecko) FetchMarketChart(ctx context.Context, coingeckoID string, days int) (*service.MarketChart, error) {
	chart, ok := s.charts[coingeckoID]
	if !ok {
		return nil, fmt.Errorf("request to /coins/%s/market_chart failed after 1 attempt(s)", coingeckoID)
	}
	return chart, nil
}

// captureRepository records loads so tests can inspect what reached the store.
type captureRepository struct {
	nextID   uint64
	upserted []schema.Cryptocurrency
	inserted []schema.HistoricalPrice
}

func (r *captureRepository) GetAllCryptocurrencies() []schema.Cryptocurrency { return nil }
func (r *captureRepository) GetCryptocurrencyBySymbol(symbol string) *schema.Cryptocurrency {
	return nil
}
func (r *captureRepository) UpsertCryptocurrency(crypto *schema.Cryptocurrency) *schema.Cryptocurrency {
	r.nextID++
	saved := *crypto
	saved.ID = r.nextID
	r.upserted = append(r.upserted, saved)
	return &saved
}
func (r *captureRepository) GetHistoricalPricesByCryptoID(cryptoID uint64, startDate, endDate *time.Time) []schema.HistoricalPrice {
	return nil
}
func (r *captureRepository) GetPriceOnDate(cryptoID uint64, date time.Time) *float64 { return nil }
func (r *captureRepository) GetHighestVolumeCrypto() *repository.HighestVolume      { return nil }
func (r *captureRepository) InsertHistoricalPrices(prices []schema.HistoricalPrice) error {
	r.inserted = append(r.inserted, prices...)
	return nil
}

func snapshotFixture(id, symbol, name string, price, cap, volume float64) *service.CoinSnapshot {
	snapshot := &service.CoinSnapshot{ID: id, Symbol: symbol, Name: name}
	snapshot.MarketData.CurrentPrice = map[string]float64{"usd": price}
	snapshot.MarketData.MarketCap = map[string]float64{"usd": cap}
	snapshot.MarketData.TotalVolume = map[string]float64{"usd": volume}
	return snapshot
}

func setupEtlService(gecko service.CoinGeckoService, repo repository.CryptoRepository) service.EtlService {
	cfg := shared.SetupTestCfg(nil)
	return service.NewEtlService(cfg, zerolog.New(nil), gecko, repo)
}

func TestTransformSnapshot(t *testing.T) {
	etlService := setupEtlService(nil, nil)

	crypto, err := etlService.TransformSnapshot(snapshotFixture("bitcoin", "btc", "Bitcoin", 50000, 1000000, 5000))
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", crypto.CoingeckoID)
	assert.Equal(t, "BTC", crypto.Symbol)
	assert.Equal(t, 50000.0, crypto.CurrentPrice)
	assert.Equal(t, 1000000.0, crypto.MarketCap)
	assert.WithinDuration(t, time.Now(), crypto.LastUpdated, time.Minute)
}

func TestTransformSnapshotMissingFields(t *testing.T) {
	etlService := setupEtlService(nil, nil)

	snapshot := snapshotFixture("bitcoin", "btc", "Bitcoin", 50000, 1000000, 5000)
	snapshot.MarketData.CurrentPrice = map[string]float64{"eur": 47000}
	_, err := etlService.TransformSnapshot(snapshot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "current_price.usd")

	snapshot = snapshotFixture("bitcoin", "btc", "Bitcoin", 50000, 1000000, 5000)
	snapshot.MarketData.MarketCap = nil
	_, err = etlService.TransformSnapshot(snapshot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market_cap.usd")

	snapshot = snapshotFixture("bitcoin", "btc", "Bitcoin", 50000, 1000000, 5000)
	snapshot.MarketData.TotalVolume = nil
	_, err = etlService.TransformSnapshot(snapshot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_volume.usd")
}

func TestTransformMarketChart(t *testing.T) {
	etlService := setupEtlService(nil, nil)

	chart := &service.MarketChart{
		Prices:       [][]float64{{1700000000000, 50000}, {1700086400000, 51000}, {1700172800000, 52000}},
		MarketCaps:   [][]float64{{1700000000000, 1000000}, {1700086400000, 1010000}},
		TotalVolumes: [][]float64{{1700000000000, 5000}, {1700086400000, 5100}},
	}

	records, err := etlService.TransformMarketChart(chart, 7, "bitcoin")
	require.NoError(t, err)
	// Zipped positionally; the shortest series bounds the result.
	require.Len(t, records, 2)
	assert.Equal(t, uint64(7), records[0].CryptoID)
	assert.Equal(t, "bitcoin", records[0].CoingeckoID)
	assert.Equal(t, 50000.0, records[0].ClosePrice)
	assert.Equal(t, 1010000.0, records[1].MarketCap)
	assert.Equal(t, time.UnixMilli(1700000000000), records[0].Date)
}

func TestTransformMarketChartEmptyPrices(t *testing.T) {
	etlService := setupEtlService(nil, nil)

	_, err := etlService.TransformMarketChart(&service.MarketChart{}, 7, "bitcoin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing 'prices'")
}

func TestTransformMarketChartMalformedEntry(t *testing.T) {
	etlService := setupEtlService(nil, nil)

	chart := &service.MarketChart{
		Prices:       [][]float64{{1700000000000}},
		MarketCaps:   [][]float64{{1700000000000, 1000000}},
		TotalVolumes: [][]float64{{1700000000000, 5000}},
	}
	_, err := etlService.TransformMarketChart(chart, 7, "bitcoin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed series entry")
}

func TestRunContinuesAfterAssetFailure(t *testing.T) {
	chart := &service.MarketChart{
		Prices:       [][]float64{{1700000000000, 50000}},
		MarketCaps:   [][]float64{{1700000000000, 1000000}},
		TotalVolumes: [][]float64{{1700000000000, 5000}},
	}
	gecko := &stubCoinGecko{
		snapshots: map[string]*service.CoinSnapshot{
			"bitcoin":  snapshotFixture("bitcoin", "btc", "Bitcoin", 50000, 1000000, 5000),
			"ethereum": snapshotFixture("ethereum", "eth", "Ethereum", 3000, 400000, 2000),
		},
		charts: map[string]*service.MarketChart{
			"bitcoin":  chart,
			"ethereum": chart,
		},
	}
	repo := &captureRepository{}
	etlService := setupEtlService(gecko, repo)

	etlService.Run(context.Background(), []string{"bitcoin", "broken-coin", "ethereum"})

	require.Len(t, repo.upserted, 2)
	assert.Equal(t, "bitcoin", repo.upserted[0].CoingeckoID)
	assert.Equal(t, "ethereum", repo.upserted[1].CoingeckoID)
	assert.Len(t, repo.inserted, 2)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	gecko := &stubCoinGecko{
		snapshots: map[string]*service.CoinSnapshot{
			"bitcoin": snapshotFixture("bitcoin", "btc", "Bitcoin", 50000, 1000000, 5000),
		},
		charts: map[string]*service.MarketChart{},
	}
	repo := &captureRepository{}
	etlService := setupEtlService(gecko, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	etlService.Run(ctx, []string{"bitcoin", "ethereum"})

	assert.Empty(t, repo.upserted)
	assert.Empty(t, repo.inserted)
}

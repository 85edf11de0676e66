package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/pipe199x/crypto-analytics/internal/database/schema"
	"github.com/pipe199x/crypto-analytics/internal/module/crypto/repository"
)

// EtlService drives extract -> transform -> load per tracked asset. A failure
// in one asset is logged and never aborts the rest of the batch; a partially
// loaded asset (snapshot upserted, history insert failed) stays partial.
type EtlService interface {
	TransformSnapshot(raw *CoinSnapshot) (*schema.Cryptocurrency, error)
	TransformMarketChart(raw *MarketChart, cryptoID uint64, coingeckoID string) ([]schema.HistoricalPrice, error)
	Run(ctx context.Context, coingeckoIDs []string)
}

type etlService struct {
	config           *koanf.Koanf
	logger           zerolog.Logger
	coinGeckoService CoinGeckoService
	cryptoRepository repository.CryptoRepository
	historyDays      int
}

func NewEtlService(cfg *koanf.Koanf, logger zerolog.Logger, coinGeckoService CoinGeckoService, cryptoRepository repository.CryptoRepository) EtlService {
	return &etlService{
		config:           cfg,
		logger:           logger,
		coinGeckoService: coinGeckoService,
		cryptoRepository: cryptoRepository,
		historyDays:      cfg.Int("etl.history-days"),
	}
}

// TransformSnapshot normalizes a raw snapshot into a Cryptocurrency row.
// LastUpdated is stamped with the transform-time wall clock, not the
// provider's timestamp.
func (s *etlService) TransformSnapshot(raw *CoinSnapshot) (*schema.Cryptocurrency, error) {
	currentPrice, ok := raw.MarketData.CurrentPrice["usd"]
	if !ok {
		return nil, fmt.Errorf("missing 'market_data.current_price.usd' in response for %s", raw.ID)
	}
	marketCap, ok := raw.MarketData.MarketCap["usd"]
	if !ok {
		return nil, fmt.Errorf("missing 'market_data.market_cap.usd' in response for %s", raw.ID)
	}
	totalVolume, ok := raw.MarketData.TotalVolume["usd"]
	if !ok {
		return nil, fmt.Errorf("missing 'market_data.total_volume.usd' in response for %s", raw.ID)
	}

	return &schema.Cryptocurrency{
		CoingeckoID:  raw.ID,
		Symbol:       strings.ToUpper(raw.Symbol),
		Name:         raw.Name,
		CurrentPrice: currentPrice,
		MarketCap:    marketCap,
		TotalVolume:  totalVolume,
		LastUpdated:  time.Now(),
	}, nil
}

// TransformMarketChart zips the three parallel series positionally; the
// provider co-indexes them, so the shortest series bounds the zip.
func (s *etlService) TransformMarketChart(raw *MarketChart, cryptoID uint64, coingeckoID string) ([]schema.HistoricalPrice, error) {
	if len(raw.Prices) == 0 {
		return nil, fmt.Errorf("historical data for %s is missing 'prices'", coingeckoID)
	}

	n := len(raw.Prices)
	if len(raw.MarketCaps) < n {
		n = len(raw.MarketCaps)
	}
	if len(raw.TotalVolumes) < n {
		n = len(raw.TotalVolumes)
	}

	records := make([]schema.HistoricalPrice, 0, n)
	for i := 0; i < n; i++ {
		price, marketCap, volume := raw.Prices[i], raw.MarketCaps[i], raw.TotalVolumes[i]
		if len(price) < 2 || len(marketCap) < 2 || len(volume) < 2 {
			return nil, fmt.Errorf("malformed series entry at index %d in historical data for %s", i, coingeckoID)
		}

		records = append(records, schema.HistoricalPrice{
			CryptoID:    cryptoID,
			CoingeckoID: coingeckoID,
			Date:        time.UnixMilli(int64(price[0])),
			ClosePrice:  price[1],
			MarketCap:   marketCap[1],
			TotalVolume: volume[1],
		})
	}
	return records, nil
}

func (s *etlService) runOne(ctx context.Context, coingeckoID string) error {
	snapshot, err := s.coinGeckoService.FetchCoinSnapshot(ctx, coingeckoID)
	if err != nil {
		return err
	}
	chart, err := s.coinGeckoService.FetchMarketChart(ctx, coingeckoID, s.historyDays)
	if err != nil {
		return err
	}

	crypto, err := s.TransformSnapshot(snapshot)
	if err != nil {
		return err
	}

	saved := s.cryptoRepository.UpsertCryptocurrency(crypto)
	if saved == nil {
		return fmt.Errorf("failed to upsert cryptocurrency %q", coingeckoID)
	}

	records, err := s.TransformMarketChart(chart, saved.ID, saved.CoingeckoID)
	if err != nil {
		return err
	}
	return s.cryptoRepository.InsertHistoricalPrices(records)
}

// Run processes the tracked assets strictly sequentially. Per-asset outcomes
// are reported via log output only.
func (s *etlService) Run(ctx context.Context, coingeckoIDs []string) {
	for _, coingeckoID := range coingeckoIDs {
		if ctx.Err() != nil {
			s.logger.Warn().Msg("ETL run canceled")
			return
		}

		if err := s.runOne(ctx, coingeckoID); err != nil {
			s.logger.Error().Err(err).Msgf("Error during ETL process for %s", coingeckoID)
			continue
		}
		s.logger.Info().Msgf("ETL process for %s completed successfully", coingeckoID)
	}
	s.logger.Info().Msg("ETL process completed for all cryptocurrencies")
}

package repository

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm/clause"

	"github.com/pipe199x/crypto-analytics/internal/database"
	"github.com/pipe199x/crypto-analytics/internal/database/schema"
	"github.com/pipe199x/crypto-analytics/internal/module/shared"
)

// HighestVolume is the asset/day combination with the largest trailing-24h volume.
type HighestVolume struct {
	CryptoID    uint64    `json:"crypto_id"`
	CoingeckoID string    `json:"coingecko_id"`
	TotalVolume float64   `json:"total_volume"`
	Date        time.Time `json:"date"`
}

// CryptoRepository is the gateway to the cryptocurrencies and historical_prices
// tables. Read methods swallow store errors: they log a warning and return an
// empty or nil result, so callers cannot tell "no data" from "store unreachable".
// UpsertCryptocurrency swallows as well and returns nil on failure;
// InsertHistoricalPrices propagates errors to its caller.
type CryptoRepository interface {
	GetAllCryptocurrencies() []schema.Cryptocurrency
	GetCryptocurrencyBySymbol(symbol string) *schema.Cryptocurrency
	UpsertCryptocurrency(crypto *schema.Cryptocurrency) *schema.Cryptocurrency
	GetHistoricalPricesByCryptoID(cryptoID uint64, startDate, endDate *time.Time) []schema.HistoricalPrice
	GetPriceOnDate(cryptoID uint64, date time.Time) *float64
	GetHighestVolumeCrypto() *HighestVolume
	InsertHistoricalPrices(prices []schema.HistoricalPrice) error
}

type cryptoRepository struct {
	db          *database.Database
	logger      zerolog.Logger
	redisClient *shared.RedisClient
}

const insertBatchSize = 500

func NewCryptoRepository(db *database.Database, logger zerolog.Logger, redisClient *shared.RedisClient) CryptoRepository {
	return &cryptoRepository{
		db:          db,
		logger:      logger,
		redisClient: redisClient,
	}
}

func (r *cryptoRepository) cacheReady() bool {
	return r.redisClient != nil && r.redisClient.Client != nil
}

func (r *cryptoRepository) GetAllCryptocurrencies() []schema.Cryptocurrency {
	var cryptos []schema.Cryptocurrency
	if err := r.db.DB.Find(&cryptos).Error; err != nil {
		r.logger.Warn().Err(err).Msg("failed to fetch cryptocurrencies")
		return []schema.Cryptocurrency{}
	}
	return cryptos
}

func (r *cryptoRepository) GetCryptocurrencyBySymbol(symbol string) *schema.Cryptocurrency {
	if r.cacheReady() {
		if cached, err := r.redisClient.GetSnapshotCache(symbol); err == nil && cached != "" {
			var crypto schema.Cryptocurrency
			if err := json.Unmarshal([]byte(cached), &crypto); err == nil {
				return &crypto
			}
		}
	}

	var cryptos []schema.Cryptocurrency
	if err := r.db.DB.Where("symbol = ?", symbol).Limit(1).Find(&cryptos).Error; err != nil {
		r.logger.Warn().Err(err).Msgf("failed to fetch cryptocurrency by symbol %q", symbol)
		return nil
	}
	if len(cryptos) == 0 {
		return nil
	}

	if r.cacheReady() {
		if data, err := json.Marshal(cryptos[0]); err == nil {
			r.redisClient.SetSnapshotCache(symbol, data)
		}
	}
	return &cryptos[0]
}

// UpsertCryptocurrency inserts or updates the row keyed on coingecko_id and
// returns the stored row with its local identity populated.
func (r *cryptoRepository) UpsertCryptocurrency(crypto *schema.Cryptocurrency) *schema.Cryptocurrency {
	err := r.db.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "coingecko_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"symbol", "name", "current_price", "market_cap", "total_volume", "last_updated", "updated_at",
		}),
	}).Create(crypto).Error
	if err != nil {
		r.logger.Warn().Err(err).Msgf("failed to upsert cryptocurrency %q", crypto.CoingeckoID)
		return nil
	}

	// On the conflict/update path the generated ID is not reported back, so
	// re-read the row to hand the caller its store identity.
	var saved schema.Cryptocurrency
	if err := r.db.DB.Where("coingecko_id = ?", crypto.CoingeckoID).First(&saved).Error; err != nil {
		r.logger.Warn().Err(err).Msgf("failed to reload cryptocurrency %q after upsert", crypto.CoingeckoID)
		return nil
	}

	if r.cacheReady() {
		if data, err := json.Marshal(saved); err == nil {
			r.redisClient.SetSnapshotCache(saved.Symbol, data)
		}
	}
	return &saved
}

// GetHistoricalPricesByCryptoID returns points in the inclusive date range,
// ordered by date descending and deduplicated to one point per calendar day
// (first-seen at the descending sort position wins).
func (r *cryptoRepository) GetHistoricalPricesByCryptoID(cryptoID uint64, startDate, endDate *time.Time) []schema.HistoricalPrice {
	query := r.db.DB.Where("crypto_id = ?", cryptoID)
	if startDate != nil {
		query = query.Where("date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("date <= ?", *endDate)
	}

	var prices []schema.HistoricalPrice
	if err := query.Order("date DESC").Find(&prices).Error; err != nil {
		r.logger.Warn().Err(err).Msgf("failed to fetch historical prices for crypto %d", cryptoID)
		return []schema.HistoricalPrice{}
	}

	seen := make(map[string]struct{}, len(prices))
	unique := make([]schema.HistoricalPrice, 0, len(prices))
	for _, price := range prices {
		dayKey := price.Date.Format("2006-01-02")
		if _, ok := seen[dayKey]; ok {
			continue
		}
		seen[dayKey] = struct{}{}
		unique = append(unique, price)
	}
	return unique
}

// GetPriceOnDate returns the first close price recorded within the calendar day
// of the given date, or nil when none exists.
func (r *cryptoRepository) GetPriceOnDate(cryptoID uint64, date time.Time) *float64 {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, date.Location())

	var prices []schema.HistoricalPrice
	err := r.db.DB.
		Where("crypto_id = ? AND date >= ? AND date <= ?", cryptoID, startOfDay, endOfDay).
		Limit(1).
		Find(&prices).Error
	if err != nil {
		r.logger.Warn().Err(err).Msgf("failed to fetch price on %s for crypto %d", date.Format("2006-01-02"), cryptoID)
		return nil
	}
	if len(prices) == 0 {
		return nil
	}
	return &prices[0].ClosePrice
}

func (r *cryptoRepository) GetHighestVolumeCrypto() *HighestVolume {
	last24Hours := time.Now().Add(-24 * time.Hour)

	var prices []schema.HistoricalPrice
	err := r.db.DB.
		Where("date >= ?", last24Hours).
		Order("total_volume DESC").
		Limit(1).
		Find(&prices).Error
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to fetch highest volume cryptocurrency")
		return nil
	}
	if len(prices) == 0 {
		return nil
	}

	return &HighestVolume{
		CryptoID:    prices[0].CryptoID,
		CoingeckoID: prices[0].CoingeckoID,
		TotalVolume: prices[0].TotalVolume,
		Date:        prices[0].Date,
	}
}

// InsertHistoricalPrices bulk-inserts with no conflict handling; duplicate days
// across repeated ETL runs are permitted and filtered out on the read side.
func (r *cryptoRepository) InsertHistoricalPrices(prices []schema.HistoricalPrice) error {
	if len(prices) == 0 {
		return nil
	}
	return r.db.DB.CreateInBatches(prices, insertBatchSize).Error
}

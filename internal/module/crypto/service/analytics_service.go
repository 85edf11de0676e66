package service

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipe199x/crypto-analytics/internal/database/schema"
	"github.com/pipe199x/crypto-analytics/internal/module/crypto/repository"
)

type ROIResult struct {
	CryptoID     uint64  `json:"crypto_id"`
	ROI          float64 `json:"roi"`
	InitialPrice float64 `json:"initial_price"`
	FinalPrice   float64 `json:"final_price"`
}

type CorrelationResult struct {
	CryptoID1   uint64  `json:"crypto_id_1"`
	CryptoID2   uint64  `json:"crypto_id_2"`
	Days        int     `json:"days"`
	Correlation float64 `json:"correlation"`
}

type VolatilityResult struct {
	CryptoID    uint64  `json:"crypto_id"`
	CoingeckoID string  `json:"coingecko_id"`
	Volatility  float64 `json:"volatility"`
}

type DominanceResult struct {
	CryptoID    uint64  `json:"crypto_id"`
	CoingeckoID string  `json:"coingecko_id"`
	Dominance   float64 `json:"dominance"`
}

type TrendResult struct {
	CryptoID         uint64  `json:"crypto_id"`
	CurrentPrice     float64 `json:"current_price"`
	PricePeriodAgo   float64 `json:"price_period_days_ago"`
	Period           int     `json:"period"`
	Trend            string  `json:"trend"`
	PercentageChange float64 `json:"percentage_change"`
}

type PerformanceResult struct {
	CryptoID         uint64  `json:"crypto_id"`
	CurrentPrice     float64 `json:"current_price"`
	PricePeriodAgo   float64 `json:"price_period_days_ago"`
	Period           int     `json:"period"`
	PercentageChange float64 `json:"percentage_change"`
}

// AnalyticsService holds the stateless read-only use cases: persistence
// gateway reads plus arithmetic.
type AnalyticsService interface {
	GetAllCryptocurrencies() []schema.Cryptocurrency
	GetCryptocurrencyBySymbol(symbol string) *schema.Cryptocurrency
	GetHistoricalPrices(cryptoID uint64, startDate, endDate *time.Time) []schema.HistoricalPrice
	GetHighestVolumeCrypto() *repository.HighestVolume
	CalculateROI(cryptoID uint64, startDate, endDate time.Time) (*ROIResult, error)
	CalculateCorrelation(cryptoID1, cryptoID2 uint64, days int) (*CorrelationResult, error)
	CalculateVolatility() ([]VolatilityResult, error)
	CalculateMarketDominance() ([]DominanceResult, error)
	AnalyzePriceTrend(cryptoID uint64, period int) (*TrendResult, error)
	ComparePerformance(cryptoIDs []uint64, period int) ([]PerformanceResult, error)
}

type analyticsService struct {
	cryptoRepository repository.CryptoRepository
	logger           zerolog.Logger
}

func NewAnalyticsService(cryptoRepository repository.CryptoRepository, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		cryptoRepository: cryptoRepository,
		logger:           logger,
	}
}

func (s *analyticsService) GetAllCryptocurrencies() []schema.Cryptocurrency {
	return s.cryptoRepository.GetAllCryptocurrencies()
}

func (s *analyticsService) GetCryptocurrencyBySymbol(symbol string) *schema.Cryptocurrency {
	return s.cryptoRepository.GetCryptocurrencyBySymbol(symbol)
}

func (s *analyticsService) GetHistoricalPrices(cryptoID uint64, startDate, endDate *time.Time) []schema.HistoricalPrice {
	return s.cryptoRepository.GetHistoricalPricesByCryptoID(cryptoID, startDate, endDate)
}

func (s *analyticsService) GetHighestVolumeCrypto() *repository.HighestVolume {
	return s.cryptoRepository.GetHighestVolumeCrypto()
}

func (s *analyticsService) CalculateROI(cryptoID uint64, startDate, endDate time.Time) (*ROIResult, error) {
	initialPrice := s.cryptoRepository.GetPriceOnDate(cryptoID, startDate)
	if initialPrice == nil {
		return nil, validationErrorf("no price found for the start date: %s", startDate.Format("2006-01-02"))
	}

	finalPrice := s.cryptoRepository.GetPriceOnDate(cryptoID, endDate)
	if finalPrice == nil {
		return nil, validationErrorf("no price found for the end date: %s", endDate.Format("2006-01-02"))
	}

	roi := ((*finalPrice - *initialPrice) / *initialPrice) * 100
	return &ROIResult{
		CryptoID:     cryptoID,
		ROI:          roi,
		InitialPrice: *initialPrice,
		FinalPrice:   *finalPrice,
	}, nil
}

// CalculateCorrelation computes the Pearson coefficient over close prices of
// the two assets, aligned by shared calendar dates within the trailing window.
func (s *analyticsService) CalculateCorrelation(cryptoID1, cryptoID2 uint64, days int) (*CorrelationResult, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	prices1 := s.cryptoRepository.GetHistoricalPricesByCryptoID(cryptoID1, &startDate, &endDate)
	prices2 := s.cryptoRepository.GetHistoricalPricesByCryptoID(cryptoID2, &startDate, &endDate)
	if len(prices1) == 0 || len(prices2) == 0 {
		return nil, validationErrorf("insufficient data to calculate correlation")
	}

	byDay1 := pricesByDay(prices1)
	byDay2 := pricesByDay(prices2)

	var commonDates []string
	for day := range byDay1 {
		if _, ok := byDay2[day]; ok {
			commonDates = append(commonDates, day)
		}
	}
	if len(commonDates) < 2 {
		return nil, validationErrorf("not enough common dates to calculate correlation")
	}
	sort.Strings(commonDates)

	aligned1 := make([]float64, len(commonDates))
	aligned2 := make([]float64, len(commonDates))
	for i, day := range commonDates {
		aligned1[i] = byDay1[day]
		aligned2[i] = byDay2[day]
	}

	return &CorrelationResult{
		CryptoID1:   cryptoID1,
		CryptoID2:   cryptoID2,
		Days:        days,
		Correlation: pearson(aligned1, aligned2),
	}, nil
}

// CalculateVolatility reports the population standard deviation of close
// prices over each asset's full available history. Assets with fewer than two
// points are silently skipped.
func (s *analyticsService) CalculateVolatility() ([]VolatilityResult, error) {
	cryptos := s.cryptoRepository.GetAllCryptocurrencies()
	if len(cryptos) == 0 {
		return nil, validationErrorf("no tracked cryptocurrencies found")
	}

	results := make([]VolatilityResult, 0, len(cryptos))
	for _, crypto := range cryptos {
		prices := s.cryptoRepository.GetHistoricalPricesByCryptoID(crypto.ID, nil, nil)
		if len(prices) < 2 {
			continue
		}

		closePrices := make([]float64, len(prices))
		for i, price := range prices {
			closePrices[i] = price.ClosePrice
		}
		results = append(results, VolatilityResult{
			CryptoID:    crypto.ID,
			CoingeckoID: crypto.CoingeckoID,
			Volatility:  populationStdDev(closePrices),
		})
	}
	return results, nil
}

// CalculateMarketDominance reports each asset's market cap as a percentage of
// the total; assets with a zero cap are excluded from both sides of the ratio.
func (s *analyticsService) CalculateMarketDominance() ([]DominanceResult, error) {
	cryptos := s.cryptoRepository.GetAllCryptocurrencies()
	if len(cryptos) == 0 {
		return nil, validationErrorf("no cryptocurrencies found in the database")
	}

	var totalMarketCap float64
	for _, crypto := range cryptos {
		if crypto.MarketCap != 0 {
			totalMarketCap += crypto.MarketCap
		}
	}

	results := make([]DominanceResult, 0, len(cryptos))
	for _, crypto := range cryptos {
		if crypto.MarketCap == 0 || totalMarketCap <= 0 {
			continue
		}
		results = append(results, DominanceResult{
			CryptoID:    crypto.ID,
			CoingeckoID: crypto.CoingeckoID,
			Dominance:   (crypto.MarketCap / totalMarketCap) * 100,
		})
	}
	return results, nil
}

// AnalyzePriceTrend compares the most recent close against the close `period`
// days ago and classifies on strict inequality.
func (s *analyticsService) AnalyzePriceTrend(cryptoID uint64, period int) (*TrendResult, error) {
	prices := s.cryptoRepository.GetHistoricalPricesByCryptoID(cryptoID, nil, nil)
	if len(prices) == 0 {
		return nil, validationErrorf("no historical prices found for the cryptocurrency with ID %d", cryptoID)
	}

	// The gateway returns dates descending, so the head is the latest day.
	currentPrice := prices[0].ClosePrice
	priceThen := s.cryptoRepository.GetPriceOnDate(cryptoID, time.Now().AddDate(0, 0, -period))
	if priceThen == nil {
		return nil, validationErrorf("no price found for %d days ago", period)
	}

	trend := "stable"
	if currentPrice > *priceThen {
		trend = "upward"
	} else if currentPrice < *priceThen {
		trend = "downward"
	}

	return &TrendResult{
		CryptoID:         cryptoID,
		CurrentPrice:     currentPrice,
		PricePeriodAgo:   *priceThen,
		Period:           period,
		Trend:            trend,
		PercentageChange: ((currentPrice - *priceThen) / *priceThen) * 100,
	}, nil
}

// ComparePerformance reports the percentage change over the period for each
// asset; assets lacking history or the reference price are silently skipped.
func (s *analyticsService) ComparePerformance(cryptoIDs []uint64, period int) ([]PerformanceResult, error) {
	if period < 1 {
		return nil, validationErrorf("the period must be a positive integer greater than or equal to 1")
	}

	performance := make([]PerformanceResult, 0, len(cryptoIDs))
	for _, cryptoID := range cryptoIDs {
		prices := s.cryptoRepository.GetHistoricalPricesByCryptoID(cryptoID, nil, nil)
		if len(prices) == 0 {
			continue
		}

		currentPrice := prices[0].ClosePrice
		priceThen := s.cryptoRepository.GetPriceOnDate(cryptoID, time.Now().AddDate(0, 0, -period))
		if priceThen == nil {
			continue
		}

		performance = append(performance, PerformanceResult{
			CryptoID:         cryptoID,
			CurrentPrice:     currentPrice,
			PricePeriodAgo:   *priceThen,
			Period:           period,
			PercentageChange: ((currentPrice - *priceThen) / *priceThen) * 100,
		})
	}
	return performance, nil
}

func pricesByDay(prices []schema.HistoricalPrice) map[string]float64 {
	byDay := make(map[string]float64, len(prices))
	for _, price := range prices {
		day := price.Date.Format("2006-01-02")
		if _, ok := byDay[day]; !ok {
			byDay[day] = price.ClosePrice
		}
	}
	return byDay
}

// populationStdDev divides by n, not n-1.
func populationStdDev(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	return cov / math.Sqrt(varX*varY)
}

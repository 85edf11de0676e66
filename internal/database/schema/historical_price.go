package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoricalPrice is one daily close for an asset. Rows are immutable once
// written; the insert path has no conflict key, so repeated ETL runs may leave
// several rows on the same calendar day and read paths deduplicate by day.
type HistoricalPrice struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CryptoID    uint64    `gorm:"notNull;index" json:"crypto_id"` // cryptocurrencies.id
	CoingeckoID string    `gorm:"type:varchar(255);notNull" json:"coingecko_id"`
	Date        time.Time `gorm:"notNull;index" json:"date"`
	ClosePrice  float64   `gorm:"notNull" json:"close_price"`
	TotalVolume float64   `gorm:"notNull" json:"total_volume"`
	MarketCap   float64   `gorm:"notNull" json:"market_cap"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (HistoricalPrice) TableName() string {
	return "historical_prices"
}

func (p *HistoricalPrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

package schema

import "time"

// Cryptocurrency is the current market snapshot of a tracked asset.
// CoingeckoID is the upsert key; rows are refreshed every ETL cycle and never deleted.
type Cryptocurrency struct {
	CoingeckoID  string    `gorm:"type:varchar(255);notNull;uniqueIndex" json:"coingecko_id"` // coingecko slug, e.g. "bitcoin"
	Symbol       string    `gorm:"type:varchar(32);notNull" json:"symbol"`                    // uppercased ticker, e.g. "BTC"
	Name         string    `gorm:"type:varchar(255);notNull" json:"name"`
	CurrentPrice float64   `gorm:"notNull" json:"current_price"` // usd
	MarketCap    float64   `gorm:"notNull" json:"market_cap"`    // usd
	TotalVolume  float64   `gorm:"notNull" json:"total_volume"`  // usd
	LastUpdated  time.Time `gorm:"notNull" json:"last_updated"`  // transform-time wall clock
	Base
}

func (Cryptocurrency) TableName() string {
	return "cryptocurrencies"
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the last-known rate for a currency pair, refreshed on every
// successful API fetch and used as a fallback when both rate APIs are down.
type ExchangeRate struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Base      string          `gorm:"size:3;not null;uniqueIndex:idx_rate_pair" json:"base"`
	Quote     string          `gorm:"size:3;not null;uniqueIndex:idx_rate_pair" json:"quote"`
	Rate      decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"rate"`
	FetchedAt time.Time       `gorm:"not null" json:"fetched_at"`
}

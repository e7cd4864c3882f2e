package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord represents one ticker's daily OHLCV bar as stored in the
// stock_prices table. Rows are written once per (ticker, date) during
// backfill and treated as immutable afterwards.
type PriceRecord struct {
	ID             int             `json:"id"`
	Ticker         string          `json:"ticker"`
	Date           time.Time       `json:"date"`
	Open           decimal.Decimal `json:"open"`
	Close          decimal.Decimal `json:"close"`
	High           decimal.Decimal `json:"high"`
	Volume         int64           `json:"volume"`
	WeightedVolume decimal.Decimal `json:"weighted_volume"`
	CreatedAt      time.Time       `json:"created_at"`
}

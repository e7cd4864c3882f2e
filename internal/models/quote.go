package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time snapshot of a ticker's current trading session.
// Unlike PriceRecord rows, quotes are overwritten in place: the latest_quotes
// table holds at most one row per ticker.
type Quote struct {
	Ticker        string          `json:"ticker"`
	Price         decimal.Decimal `json:"price"`
	DayOpen       decimal.Decimal `json:"day_open"`
	DayHigh       decimal.Decimal `json:"day_high"`
	DayLow        decimal.Decimal `json:"day_low"`
	Volume        int64           `json:"volume"`
	PrevClose     decimal.Decimal `json:"prev_close"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	QuotedAt      time.Time       `json:"quoted_at"`
}

// QuoteEvent is the Kafka message shape for live quote updates published by
// an external quote poller and consumed into the latest_quotes table.
type QuoteEvent struct {
	EventType string    `json:"event_type"`
	Quote     *Quote    `json:"quote,omitempty"`
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`
}

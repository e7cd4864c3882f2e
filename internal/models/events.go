package models

import "time"

// Ingestion event type constants
const (
	EventDayComplete      = "DAY_COMPLETE"
	EventMarketClosed     = "MARKET_CLOSED"
	EventBackfillFinished = "BACKFILL_FINISHED"
	EventQuoteUpdated     = "QUOTE_UPDATED"
)

// IngestionEvent represents a Kafka event emitted by the backfill controller
// when a date reaches a terminal classification, or when a full run finishes.
type IngestionEvent struct {
	EventType   string    `json:"event_type"`
	Date        string    `json:"date,omitempty"` // YYYY-MM-DD
	TickerCount int       `json:"ticker_count,omitempty"`
	Processed   int       `json:"processed,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

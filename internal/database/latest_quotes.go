package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stockview/market-data-service/internal/models"
)

// UpsertQuote stores the latest live quote for a ticker. The table holds at
// most one row per ticker; newer snapshots overwrite older ones.
func (db *DB) UpsertQuote(q *models.Quote) error {
	query := `
		INSERT INTO latest_quotes (
			ticker, price, day_open, day_high, day_low, volume,
			prev_close, change_percent, quoted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker) DO UPDATE SET
			price = EXCLUDED.price,
			day_open = EXCLUDED.day_open,
			day_high = EXCLUDED.day_high,
			day_low = EXCLUDED.day_low,
			volume = EXCLUDED.volume,
			prev_close = EXCLUDED.prev_close,
			change_percent = EXCLUDED.change_percent,
			quoted_at = EXCLUDED.quoted_at
	`
	_, err := db.conn.Exec(query,
		q.Ticker, q.Price, q.DayOpen, q.DayHigh, q.DayLow, q.Volume,
		q.PrevClose, q.ChangePercent, q.QuotedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert quote: %w", err)
	}
	return nil
}

// GetQuote retrieves the latest stored quote for a ticker
func (db *DB) GetQuote(ticker string) (*models.Quote, error) {
	query := `
		SELECT ticker, price, day_open, day_high, day_low, volume,
		       prev_close, change_percent, quoted_at
		FROM latest_quotes
		WHERE ticker = $1
	`
	var q models.Quote
	err := db.conn.QueryRow(query, ticker).Scan(
		&q.Ticker, &q.Price, &q.DayOpen, &q.DayHigh, &q.DayLow, &q.Volume,
		&q.PrevClose, &q.ChangePercent, &q.QuotedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no quote stored for %s", ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &q, nil
}

// QuoteNewerExists reports whether the stored quote for a ticker is at least
// as fresh as quotedAt. The consumer uses this to drop stale or replayed
// quote events.
func (db *DB) QuoteNewerExists(ticker string, quotedAt time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM latest_quotes WHERE ticker = $1 AND quoted_at >= $2)`

	var exists bool
	if err := db.conn.QueryRow(query, ticker, quotedAt).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check quote freshness: %w", err)
	}
	return exists, nil
}

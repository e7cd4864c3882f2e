package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stockview/market-data-service/internal/models"
)

// CreatePriceRecord inserts a single daily bar. Bars are immutable once
// written: re-inserting the same (ticker, date) is a no-op rather than an
// update, so re-running backfill over a finished date never changes data.
func (db *DB) CreatePriceRecord(p *models.PriceRecord) error {
	query := `
		INSERT INTO stock_prices (ticker, date, open, close, high, volume, weighted_volume, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker, date) DO NOTHING
	`
	_, err := db.conn.Exec(query,
		p.Ticker, p.Date, p.Open, p.Close, p.High, p.Volume, p.WeightedVolume, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create price record: %w", err)
	}
	return nil
}

// SaveTradingDay persists one ingested date atomically: every bar plus the
// date's ledger classification commit together, so a crash mid-date can
// never leave complete_data set with fewer rows than were counted.
//
// complete=true marks the date fully ingested; complete=false records a
// below-threshold day as market_open=false.
func (db *DB) SaveTradingDay(date time.Time, bars []*models.PriceRecord, complete bool) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO stock_prices (ticker, date, open, close, high, volume, weighted_volume, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker, date) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range bars {
		_, err := stmt.Exec(p.Ticker, date, p.Open, p.Close, p.High, p.Volume, p.WeightedVolume, now)
		if err != nil {
			return fmt.Errorf("failed to insert price record for %s: %w", p.Ticker, err)
		}
	}

	var statusQuery string
	if complete {
		statusQuery = `UPDATE date_statuses SET complete_data = true WHERE date = $1`
	} else {
		statusQuery = `UPDATE date_statuses SET market_open = false WHERE date = $1`
	}
	if _, err := tx.Exec(statusQuery, date); err != nil {
		return fmt.Errorf("failed to update date status for %s: %w", date.Format("2006-01-02"), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceRecordsByTicker retrieves daily bars for a ticker, newest first
func (db *DB) GetPriceRecordsByTicker(ticker string, limit int) ([]*models.PriceRecord, error) {
	query := `
		SELECT id, ticker, date, open, close, high, volume, weighted_volume, created_at
		FROM stock_prices
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := db.conn.Query(query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price records: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

// GetPriceRecordsRange retrieves daily bars for a ticker within [start, end],
// oldest first, which is the order the charting client expects
func (db *DB) GetPriceRecordsRange(ticker string, start, end time.Time) ([]*models.PriceRecord, error) {
	query := `
		SELECT id, ticker, date, open, close, high, volume, weighted_volume, created_at
		FROM stock_prices
		WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get price record range: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

// GetPriceRecordByTickerAndDate retrieves a single bar
func (db *DB) GetPriceRecordByTickerAndDate(ticker string, date time.Time) (*models.PriceRecord, error) {
	query := `
		SELECT id, ticker, date, open, close, high, volume, weighted_volume, created_at
		FROM stock_prices
		WHERE ticker = $1 AND date = $2
	`
	var p models.PriceRecord
	err := db.conn.QueryRow(query, ticker, date).Scan(
		&p.ID, &p.Ticker, &p.Date, &p.Open, &p.Close, &p.High, &p.Volume, &p.WeightedVolume, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("price record not found for %s on %s", ticker, date.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price record: %w", err)
	}
	return &p, nil
}

// CountPriceRecordsByDate returns how many distinct tickers have a bar for
// a date, the count compared against the completeness threshold.
func (db *DB) CountPriceRecordsByDate(date time.Time) (int, error) {
	query := `SELECT COUNT(DISTINCT ticker) FROM stock_prices WHERE date = $1`

	var count int
	if err := db.conn.QueryRow(query, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count price records: %w", err)
	}
	return count, nil
}

func scanPriceRecords(rows *sql.Rows) ([]*models.PriceRecord, error) {
	var prices []*models.PriceRecord
	for rows.Next() {
		var p models.PriceRecord
		err := rows.Scan(
			&p.ID, &p.Ticker, &p.Date, &p.Open, &p.Close, &p.High, &p.Volume, &p.WeightedVolume, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		prices = append(prices, &p)
	}

	return prices, rows.Err()
}

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stockview/market-data-service/internal/models"
)

// ErrLedgerEmpty is returned when the date_statuses table has no rows at
// all. The ledger must be seeded manually before the first backfill run.
var ErrLedgerEmpty = errors.New("date ledger has no rows")

// CreateDateStatus inserts a ledger row for a date. Re-inserting an already
// tracked date is a no-op, so re-running gap synchronization never creates
// duplicates.
func (db *DB) CreateDateStatus(d *models.DateStatus) error {
	query := `
		INSERT INTO date_statuses (date, complete_data, market_open)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO NOTHING
	`
	_, err := db.conn.Exec(query, d.Date, d.CompleteData, d.MarketOpen)
	if err != nil {
		return fmt.Errorf("failed to create date status: %w", err)
	}
	return nil
}

// GetDateStatus retrieves the ledger row for a date
func (db *DB) GetDateStatus(date time.Time) (*models.DateStatus, error) {
	query := `
		SELECT date, complete_data, market_open
		FROM date_statuses
		WHERE date = $1
	`
	var d models.DateStatus
	err := db.conn.QueryRow(query, date).Scan(&d.Date, &d.CompleteData, &d.MarketOpen)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("date not tracked: %s", date.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get date status: %w", err)
	}
	return &d, nil
}

// MaxDate returns the most recent date tracked by the ledger
func (db *DB) MaxDate() (time.Time, error) {
	return db.aggregateDate(`SELECT MAX(date) FROM date_statuses`)
}

// MinDate returns the earliest date tracked by the ledger
func (db *DB) MinDate() (time.Time, error) {
	return db.aggregateDate(`SELECT MIN(date) FROM date_statuses`)
}

// LatestCompleteDate returns the most recent date with complete_data set.
// Returns ErrLedgerEmpty if no date is complete yet, which is the normal
// state of a freshly seeded ledger.
func (db *DB) LatestCompleteDate() (time.Time, error) {
	return db.aggregateDate(`SELECT MAX(date) FROM date_statuses WHERE complete_data = true`)
}

// FirstPendingDate returns the earliest date that has not reached a terminal
// classification (neither complete nor confirmed market-closed). These are
// the dates still eligible for ingestion. Returns ErrLedgerEmpty if no date
// is pending.
func (db *DB) FirstPendingDate() (time.Time, error) {
	return db.aggregateDate(`
		SELECT MIN(date) FROM date_statuses
		WHERE complete_data = false AND market_open = true
	`)
}

// aggregateDate runs a single-value MIN/MAX date query. Aggregates over an
// empty set yield NULL rather than sql.ErrNoRows, hence the NullTime scan.
func (db *DB) aggregateDate(query string) (time.Time, error) {
	var d sql.NullTime
	if err := db.conn.QueryRow(query).Scan(&d); err != nil {
		return time.Time{}, fmt.Errorf("failed to query ledger date: %w", err)
	}
	if !d.Valid {
		return time.Time{}, ErrLedgerEmpty
	}
	return d.Time, nil
}

// MarkDateComplete records that a full day of prices has landed for a date
func (db *DB) MarkDateComplete(date time.Time) error {
	return db.setDateFlag(`UPDATE date_statuses SET complete_data = true WHERE date = $1`, date)
}

// MarkMarketClosed records that no trading happened on a date. This is a
// terminal classification; the date is never fetched again.
func (db *DB) MarkMarketClosed(date time.Time) error {
	return db.setDateFlag(`UPDATE date_statuses SET market_open = false WHERE date = $1`, date)
}

func (db *DB) setDateFlag(query string, date time.Time) error {
	result, err := db.conn.Exec(query, date)
	if err != nil {
		return fmt.Errorf("failed to update date status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("date not tracked: %s", date.Format("2006-01-02"))
	}
	return nil
}

// LedgerSummary describes backfill progress across all tracked dates
type LedgerSummary struct {
	TrackedDates int        `json:"tracked_dates"`
	Complete     int        `json:"complete"`
	MarketClosed int        `json:"market_closed"`
	Pending      int        `json:"pending"`
	EarliestDate *time.Time `json:"earliest_date,omitempty"`
	LatestDate   *time.Time `json:"latest_date,omitempty"`
}

// GetLedgerSummary aggregates ledger counts for the progress endpoint
func (db *DB) GetLedgerSummary() (*LedgerSummary, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE complete_data),
		       COUNT(*) FILTER (WHERE NOT market_open),
		       COUNT(*) FILTER (WHERE NOT complete_data AND market_open),
		       MIN(date),
		       MAX(date)
		FROM date_statuses
	`
	var s LedgerSummary
	var earliest, latest sql.NullTime

	err := db.conn.QueryRow(query).Scan(
		&s.TrackedDates, &s.Complete, &s.MarketClosed, &s.Pending, &earliest, &latest,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger summary: %w", err)
	}

	if earliest.Valid {
		s.EarliestDate = &earliest.Time
	}
	if latest.Valid {
		s.LatestDate = &latest.Time
	}
	return &s, nil
}

// Package backfill keeps the per-day completeness ledger in sync with the
// external market-data source. It extends the ledger through yesterday,
// finds the first gap left by a previous run, and walks forward one
// calendar date at a time under the source's rate limit, persisting each
// day's bars and classification together.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stockview/market-data-service/internal/config"
	"github.com/stockview/market-data-service/internal/database"
	"github.com/stockview/market-data-service/internal/models"
)

// ErrLedgerUninitialized is returned when the ledger has no rows at all.
// There is no date to anchor a run on; the ledger needs a manual seed.
var ErrLedgerUninitialized = errors.New("date ledger is not seeded")

// Ledger is the slice of the database layer the controller reads and
// mutates. Implemented by *database.DB.
type Ledger interface {
	CreateDateStatus(d *models.DateStatus) error
	GetDateStatus(date time.Time) (*models.DateStatus, error)
	MaxDate() (time.Time, error)
	MinDate() (time.Time, error)
	LatestCompleteDate() (time.Time, error)
	FirstPendingDate() (time.Time, error)
	MarkMarketClosed(date time.Time) error
	SaveTradingDay(date time.Time, bars []*models.PriceRecord, complete bool) error
}

// Source fetches all per-ticker bars for one calendar date. It reports a
// closed market with polygon.ErrMarketClosed; every other error is treated
// as a retryable transport failure.
type Source interface {
	FetchDay(ctx context.Context, date time.Time) ([]*models.PriceRecord, error)
}

// EventPublisher emits ingestion events for downstream consumers. May be
// nil, in which case no events are published.
type EventPublisher interface {
	PublishDayComplete(ctx context.Context, date time.Time, tickerCount int) error
	PublishMarketClosed(ctx context.Context, date time.Time) error
	PublishBackfillFinished(ctx context.Context, processed int) error
}

// Controller orchestrates a backfill pass. It is a single-writer design:
// one date is in flight at a time, and the ledger write for date d is
// committed before d+1 is attempted.
type Controller struct {
	ledger    Ledger
	source    Source
	events    EventPublisher
	pacing    time.Duration
	threshold int

	// now is swappable so tests can pin "yesterday"
	now func() time.Time
}

// New creates a Controller. events may be nil.
func New(ledger Ledger, source Source, events EventPublisher, cfg config.BackfillConfig) *Controller {
	return &Controller{
		ledger:    ledger,
		source:    source,
		events:    events,
		pacing:    cfg.PacingDelay,
		threshold: cfg.CompletenessThreshold,
		now:       time.Now,
	}
}

// Synchronize extends the ledger with one default row per calendar date
// from the day after its latest tracked date through yesterday. Ingestion
// always stays one day behind today so a still-open trading session is
// never queried. No-op if the ledger is already current.
func (c *Controller) Synchronize() error {
	maxDate, err := c.ledger.MaxDate()
	if errors.Is(err, database.ErrLedgerEmpty) {
		return ErrLedgerUninitialized
	}
	if err != nil {
		return fmt.Errorf("failed to read latest ledger date: %w", err)
	}

	yesterday := c.yesterday()
	for d := maxDate.AddDate(0, 0, 1); !d.After(yesterday); d = d.AddDate(0, 0, 1) {
		err := c.ledger.CreateDateStatus(&models.DateStatus{
			Date:         d,
			CompleteData: false,
			MarketOpen:   true,
		})
		if err != nil {
			return fmt.Errorf("failed to extend ledger to %s: %w", d.Format("2006-01-02"), err)
		}
	}
	return nil
}

// FindResumePoint returns the date backfill continues from: the day before
// the earliest date still pending ingestion. If nothing is pending the
// ledger is fully terminal and the latest tracked date is returned. On a
// freshly seeded ledger, where no date is complete yet, the earliest
// tracked date anchors the run instead.
func (c *Controller) FindResumePoint() (time.Time, error) {
	if _, err := c.ledger.LatestCompleteDate(); err != nil {
		if !errors.Is(err, database.ErrLedgerEmpty) {
			return time.Time{}, fmt.Errorf("failed to find latest complete date: %w", err)
		}
		min, err := c.ledger.MinDate()
		if errors.Is(err, database.ErrLedgerEmpty) {
			return time.Time{}, ErrLedgerUninitialized
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to find earliest ledger date: %w", err)
		}
		return min, nil
	}

	pending, err := c.ledger.FirstPendingDate()
	if errors.Is(err, database.ErrLedgerEmpty) {
		// Every tracked date is terminal; resume from the end.
		return c.ledger.MaxDate()
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to find first pending date: %w", err)
	}
	return pending.AddDate(0, 0, -1), nil
}

// Run executes one full backfill pass and returns the number of dates that
// reached a terminal classification. Dates left pending by transport
// failures are not counted; they self-heal on the next run. A single bad
// date never aborts the pass; only cancellation does.
func (c *Controller) Run(ctx context.Context) (int, error) {
	if err := c.Synchronize(); err != nil {
		return 0, err
	}

	resume, err := c.FindResumePoint()
	if err != nil {
		return 0, err
	}

	yesterday := c.yesterday()
	if !resume.Before(yesterday) {
		log.Printf("Backfill already up to date through %s", yesterday.Format("2006-01-02"))
		return 0, nil
	}

	processed := 0
	for d := resume.AddDate(0, 0, 1); !d.After(yesterday); d = d.AddDate(0, 0, 1) {
		status, err := c.ledger.GetDateStatus(d)
		if err != nil {
			log.Printf("Skipping %s: %v", d.Format("2006-01-02"), err)
			continue
		}
		if status.Terminal() {
			// Already complete or confirmed closed; never re-requested.
			continue
		}

		if err := c.pace(ctx); err != nil {
			return processed, err
		}

		bars, fetchErr := c.source.FetchDay(ctx, d)
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		switch Classify(fetchErr, len(bars), c.threshold) {
		case OutcomeComplete:
			if err := c.ledger.SaveTradingDay(d, bars, true); err != nil {
				log.Printf("Failed to persist %s, will retry next run: %v", d.Format("2006-01-02"), err)
				continue
			}
			processed++
			log.Printf("Processed %s: %d tickers, complete", d.Format("2006-01-02"), len(bars))
			c.publishDayComplete(ctx, d, len(bars))

		case OutcomeMarketClosed:
			if len(bars) > 0 {
				// Below-threshold day: keep whatever bars arrived, but
				// record the date as not having traded.
				err = c.ledger.SaveTradingDay(d, bars, false)
			} else {
				err = c.ledger.MarkMarketClosed(d)
			}
			if err != nil {
				log.Printf("Failed to persist %s, will retry next run: %v", d.Format("2006-01-02"), err)
				continue
			}
			processed++
			log.Printf("Processed %s: %d tickers, market closed", d.Format("2006-01-02"), len(bars))
			c.publishMarketClosed(ctx, d)

		case OutcomeRetry:
			log.Printf("Fetch failed for %s, will retry next run: %v", d.Format("2006-01-02"), fetchErr)
		}
	}

	c.publishFinished(ctx, processed)
	log.Printf("Backfill pass finished: %d dates reached a terminal state", processed)
	return processed, nil
}

// pace blocks for the fixed inter-call delay that keeps the run inside the
// source's rate limit (free tier: 5 calls/minute). Cancellation is checked
// while waiting so a long backfill never blocks process shutdown.
func (c *Controller) pace(ctx context.Context) error {
	if c.pacing <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.pacing)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// yesterday returns the most recent date eligible for ingestion, truncated
// to midnight UTC to match the DATE column.
func (c *Controller) yesterday() time.Time {
	y := c.now().AddDate(0, 0, -1)
	return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
}

func (c *Controller) publishDayComplete(ctx context.Context, date time.Time, count int) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishDayComplete(ctx, date, count); err != nil {
		log.Printf("Failed to publish day-complete event for %s: %v", date.Format("2006-01-02"), err)
	}
}

func (c *Controller) publishMarketClosed(ctx context.Context, date time.Time) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishMarketClosed(ctx, date); err != nil {
		log.Printf("Failed to publish market-closed event for %s: %v", date.Format("2006-01-02"), err)
	}
}

func (c *Controller) publishFinished(ctx context.Context, processed int) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishBackfillFinished(ctx, processed); err != nil {
		log.Printf("Failed to publish backfill-finished event: %v", err)
	}
}

package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockview/market-data-service/internal/models"
)

func TestLatestQuoteRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	quote := func(price float64, at time.Time) *models.Quote {
		return &models.Quote{
			Ticker:        "AAPL",
			Price:         decimal.NewFromFloat(price),
			DayOpen:       decimal.NewFromFloat(175.00),
			DayHigh:       decimal.NewFromFloat(178.50),
			DayLow:        decimal.NewFromFloat(174.00),
			Volume:        55000000,
			PrevClose:     decimal.NewFromFloat(174.20),
			ChangePercent: decimal.NewFromFloat(1.75),
			QuotedAt:      at,
		}
	}

	t.Run("UpsertQuote keeps one row per ticker", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "AAPL")

		first := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
		require.NoError(t, testDB.UpsertQuote(quote(177.25, first)))
		require.NoError(t, testDB.UpsertQuote(quote(178.00, first.Add(time.Minute))))

		retrieved, err := testDB.GetQuote("AAPL")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromFloat(178.00).Equal(retrieved.Price))

		var count int
		err = testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM latest_quotes`).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("GetQuote missing ticker", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetQuote("AAPL")
		assert.Error(t, err)
	})

	t.Run("QuoteNewerExists detects stale snapshots", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "AAPL")

		at := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
		require.NoError(t, testDB.UpsertQuote(quote(177.25, at)))

		newer, err := testDB.QuoteNewerExists("AAPL", at.Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, newer, "an older snapshot should be reported as stale")

		newer, err = testDB.QuoteNewerExists("AAPL", at.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, newer)

		newer, err = testDB.QuoteNewerExists("GOOGL", at)
		require.NoError(t, err)
		assert.False(t, newer, "unknown ticker has no stored quote")
	})
}

package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockview/market-data-service/internal/models"
)

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStockPriceRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	date := utcDate(2024, 1, 15)

	bar := func(ticker string, close float64) *models.PriceRecord {
		return &models.PriceRecord{
			Ticker:         ticker,
			Date:           date,
			Open:           decimal.NewFromFloat(175.00),
			Close:          decimal.NewFromFloat(close),
			High:           decimal.NewFromFloat(178.50),
			Volume:         55000000,
			WeightedVolume: decimal.NewFromFloat(176.50),
		}
	}

	t.Run("CreatePriceRecord creates new record", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "AAPL")
		testDB.SeedDates(t, date)

		err := testDB.CreatePriceRecord(bar("AAPL", 177.25))
		require.NoError(t, err)

		retrieved, err := testDB.GetPriceRecordByTickerAndDate("AAPL", date)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromFloat(177.25).Equal(retrieved.Close))
		assert.Equal(t, int64(55000000), retrieved.Volume)
	})

	t.Run("CreatePriceRecord is immutable on conflict", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "AAPL")
		testDB.SeedDates(t, date)

		require.NoError(t, testDB.CreatePriceRecord(bar("AAPL", 177.25)))

		// Same (ticker, date) with different values must not overwrite.
		require.NoError(t, testDB.CreatePriceRecord(bar("AAPL", 999.99)))

		retrieved, err := testDB.GetPriceRecordByTickerAndDate("AAPL", date)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromFloat(177.25).Equal(retrieved.Close))

		count, err := testDB.CountPriceRecordsByDate(date)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("SaveTradingDay commits bars and status together", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "AAPL", "GOOGL", "MSFT")
		testDB.SeedDates(t, date)

		bars := []*models.PriceRecord{bar("AAPL", 177.25), bar("GOOGL", 141.50), bar("MSFT", 390.00)}
		require.NoError(t, testDB.SaveTradingDay(date, bars, true))

		count, err := testDB.CountPriceRecordsByDate(date)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		status, err := testDB.GetDateStatus(date)
		require.NoError(t, err)
		assert.True(t, status.CompleteData)
		assert.True(t, status.MarketOpen)
	})

	t.Run("SaveTradingDay records a partial day as not trading", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "AAPL")
		testDB.SeedDates(t, date)

		require.NoError(t, testDB.SaveTradingDay(date, []*models.PriceRecord{bar("AAPL", 177.25)}, false))

		status, err := testDB.GetDateStatus(date)
		require.NoError(t, err)
		assert.False(t, status.CompleteData)
		assert.False(t, status.MarketOpen)

		count, err := testDB.CountPriceRecordsByDate(date)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "partial bars are still kept")
	})

	t.Run("SaveTradingDay re-run does not duplicate rows", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "AAPL", "GOOGL")
		testDB.SeedDates(t, date)

		bars := []*models.PriceRecord{bar("AAPL", 177.25), bar("GOOGL", 141.50)}
		require.NoError(t, testDB.SaveTradingDay(date, bars, true))
		require.NoError(t, testDB.SaveTradingDay(date, bars, true))

		count, err := testDB.CountPriceRecordsByDate(date)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("GetPriceRecordsByTicker returns newest first with limit", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "AAPL")

		for i := 0; i < 5; i++ {
			d := utcDate(2024, 1, 15+i)
			testDB.SeedDates(t, d)
			b := bar("AAPL", 170.0+float64(i))
			b.Date = d
			require.NoError(t, testDB.CreatePriceRecord(b))
		}

		prices, err := testDB.GetPriceRecordsByTicker("AAPL", 3)
		require.NoError(t, err)
		require.Len(t, prices, 3)
		assert.Equal(t, "2024-01-19", prices[0].Date.Format("2006-01-02"))
		assert.Equal(t, "2024-01-17", prices[2].Date.Format("2006-01-02"))
	})

	t.Run("GetPriceRecordsRange returns oldest first", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "AAPL")

		for i := 0; i < 5; i++ {
			d := utcDate(2024, 1, 15+i)
			testDB.SeedDates(t, d)
			b := bar("AAPL", 170.0+float64(i))
			b.Date = d
			require.NoError(t, testDB.CreatePriceRecord(b))
		}

		prices, err := testDB.GetPriceRecordsRange("AAPL", utcDate(2024, 1, 16), utcDate(2024, 1, 18))
		require.NoError(t, err)
		require.Len(t, prices, 3)
		assert.Equal(t, "2024-01-16", prices[0].Date.Format("2006-01-02"))
		assert.Equal(t, "2024-01-18", prices[2].Date.Format("2006-01-02"))
	})

	t.Run("CountPriceRecordsByDate counts distinct tickers", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "AAPL", "GOOGL")
		testDB.SeedDates(t, date)

		require.NoError(t, testDB.CreatePriceRecord(bar("AAPL", 177.25)))
		require.NoError(t, testDB.CreatePriceRecord(bar("GOOGL", 141.50)))

		count, err := testDB.CountPriceRecordsByDate(date)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = testDB.CountPriceRecordsByDate(utcDate(2024, 1, 16))
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

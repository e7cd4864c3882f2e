package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockview/market-data-service/internal/models"
)

func TestCompanyRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("UpsertCompany inserts and updates", func(t *testing.T) {
		testDB.TruncateAll(t)

		company := &models.Company{
			Ticker:            "AAPL",
			Name:              "Apple Inc.",
			Sector:            "Technology",
			IncorporationYear: 1977,
		}
		require.NoError(t, testDB.UpsertCompany(company))

		company.Sector = "Consumer Electronics"
		require.NoError(t, testDB.UpsertCompany(company))

		retrieved, err := testDB.GetCompany("AAPL")
		require.NoError(t, err)
		assert.Equal(t, "Apple Inc.", retrieved.Name)
		assert.Equal(t, "Consumer Electronics", retrieved.Sector)
		assert.Equal(t, 1977, retrieved.IncorporationYear)
	})

	t.Run("GetCompany missing ticker", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetCompany("NOPE")
		assert.Error(t, err)
	})

	t.Run("GetAllCompanies and ListTickers order by ticker", func(t *testing.T) {
		testDB.TruncateAll(t)
		testDB.SeedCompanies(t, "MSFT", "AAPL", "GOOGL")

		companies, err := testDB.GetAllCompanies()
		require.NoError(t, err)
		require.Len(t, companies, 3)
		assert.Equal(t, "AAPL", companies[0].Ticker)
		assert.Equal(t, "MSFT", companies[2].Ticker)

		tickers, err := testDB.ListTickers()
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "GOOGL", "MSFT"}, tickers)
	})
}

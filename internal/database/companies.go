package database

import (
	"database/sql"
	"fmt"

	"github.com/stockview/market-data-service/internal/models"
)

// UpsertCompany adds or updates an entry in the ticker directory
func (db *DB) UpsertCompany(c *models.Company) error {
	query := `
		INSERT INTO companies (ticker, name, sector, description, incorporation_year)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			description = EXCLUDED.description,
			incorporation_year = EXCLUDED.incorporation_year
	`
	_, err := db.conn.Exec(query, c.Ticker, c.Name, c.Sector, c.Description, c.IncorporationYear)
	if err != nil {
		return fmt.Errorf("failed to upsert company: %w", err)
	}
	return nil
}

// GetCompany retrieves a company by ticker
func (db *DB) GetCompany(ticker string) (*models.Company, error) {
	query := `
		SELECT ticker, name, sector, description, incorporation_year
		FROM companies
		WHERE ticker = $1
	`
	var c models.Company
	err := db.conn.QueryRow(query, ticker).Scan(
		&c.Ticker, &c.Name, &c.Sector, &c.Description, &c.IncorporationYear,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company not found: %s", ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// GetAllCompanies retrieves the full ticker directory, ordered by ticker
func (db *DB) GetAllCompanies() ([]*models.Company, error) {
	query := `
		SELECT ticker, name, sector, description, incorporation_year
		FROM companies
		ORDER BY ticker ASC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var c models.Company
		err := rows.Scan(&c.Ticker, &c.Name, &c.Sector, &c.Description, &c.IncorporationYear)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &c)
	}

	return companies, rows.Err()
}

// ListTickers returns every ticker in the directory. The backfill run loads
// this once at startup as the universe to keep from the grouped-daily feed.
func (db *DB) ListTickers() ([]string, error) {
	rows, err := db.conn.Query(`SELECT ticker FROM companies ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}

	return tickers, rows.Err()
}

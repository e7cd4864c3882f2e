// Package polygon implements the market-data source client for the
// Polygon.io REST API. The backfill controller only depends on the
// three-way outcome of FetchDay: a set of bars, ErrMarketClosed, or a
// retryable transport error.
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockview/market-data-service/internal/config"
	"github.com/stockview/market-data-service/internal/models"
)

// ErrMarketClosed signals that the API returned zero results for a date:
// no trading happened. This outcome is stable: fetching the same closed
// date again always yields it, so it is never retried.
var ErrMarketClosed = errors.New("market was closed")

// TransportError wraps network and HTTP-level failures. Dates that fail
// with a TransportError stay pending in the ledger and are retried on the
// next backfill run.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("polygon transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client calls the Polygon.io REST API. If a ticker universe is configured,
// grouped-daily results are filtered down to it; the feed covers thousands
// of tickers while the directory tracks ~101.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	universe   map[string]struct{}
}

// New creates a Client. tickers is the universe to keep from grouped-daily
// responses; pass nil to keep everything.
func New(cfg config.PolygonConfig, tickers []string) *Client {
	var universe map[string]struct{}
	if len(tickers) > 0 {
		universe = make(map[string]struct{}, len(tickers))
		for _, t := range tickers {
			universe[t] = struct{}{}
		}
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		universe: universe,
	}
}

// groupedDailyResponse is the wire shape of the grouped-daily aggregates
// endpoint
type groupedDailyResponse struct {
	QueryCount   int          `json:"queryCount"`
	ResultsCount int          `json:"resultsCount"`
	Results      []groupedBar `json:"results"`
	Status       string       `json:"status"`
}

type groupedBar struct {
	Ticker         string  `json:"T"`
	Open           float64 `json:"o"`
	Close          float64 `json:"c"`
	High           float64 `json:"h"`
	Low            float64 `json:"l"`
	Volume         float64 `json:"v"`
	WeightedVolume float64 `json:"vw"`
	Timestamp      int64   `json:"t"`
}

// FetchDay retrieves all daily bars for one calendar date from the
// grouped-daily endpoint, filtered to the configured universe.
func (c *Client) FetchDay(ctx context.Context, date time.Time) ([]*models.PriceRecord, error) {
	url := fmt.Sprintf("%s/v2/aggs/grouped/locale/us/market/stocks/%s?adjusted=true&apiKey=%s",
		c.baseURL, date.Format("2006-01-02"), c.apiKey)

	var resp groupedDailyResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	if resp.QueryCount == 0 {
		return nil, fmt.Errorf("%w on %s", ErrMarketClosed, date.Format("2006-01-02"))
	}

	bars := make([]*models.PriceRecord, 0, len(resp.Results))
	for _, r := range resp.Results {
		if c.universe != nil {
			if _, ok := c.universe[r.Ticker]; !ok {
				continue
			}
		}
		bars = append(bars, &models.PriceRecord{
			Ticker:         r.Ticker,
			Date:           date,
			Open:           decimal.NewFromFloat(r.Open),
			Close:          decimal.NewFromFloat(r.Close),
			High:           decimal.NewFromFloat(r.High),
			Volume:         int64(r.Volume),
			WeightedVolume: decimal.NewFromFloat(r.WeightedVolume),
		})
	}

	return bars, nil
}

// snapshotResponse is the wire shape of the single-ticker snapshot endpoint
type snapshotResponse struct {
	Ticker struct {
		Day struct {
			Open   float64 `json:"o"`
			High   float64 `json:"h"`
			Low    float64 `json:"l"`
			Volume float64 `json:"v"`
		} `json:"day"`
		PrevDay struct {
			Close float64 `json:"c"`
		} `json:"prevDay"`
		LastTrade struct {
			Price float64 `json:"p"`
		} `json:"lastTrade"`
		TodaysChangePerc float64 `json:"todaysChangePerc"`
		Updated          int64   `json:"updated"`
	} `json:"ticker"`
	Status string `json:"status"`
}

// FetchQuote retrieves a live snapshot of the current trading session for
// one ticker.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	url := fmt.Sprintf("%s/v2/snapshot/locale/us/markets/stocks/tickers/%s?apiKey=%s",
		c.baseURL, ticker, c.apiKey)

	var resp snapshotResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	quotedAt := time.Now()
	if resp.Ticker.Updated > 0 {
		quotedAt = time.Unix(0, resp.Ticker.Updated)
	}

	return &models.Quote{
		Ticker:        ticker,
		Price:         decimal.NewFromFloat(resp.Ticker.LastTrade.Price),
		DayOpen:       decimal.NewFromFloat(resp.Ticker.Day.Open),
		DayHigh:       decimal.NewFromFloat(resp.Ticker.Day.High),
		DayLow:        decimal.NewFromFloat(resp.Ticker.Day.Low),
		Volume:        int64(resp.Ticker.Day.Volume),
		PrevClose:     decimal.NewFromFloat(resp.Ticker.PrevDay.Close),
		ChangePercent: decimal.NewFromFloat(resp.Ticker.TodaysChangePerc),
		QuotedAt:      quotedAt,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Err: fmt.Errorf("request failed with status code %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

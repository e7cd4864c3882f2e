// Package cache provides a Redis-backed cache for live quotes so repeated
// lookups of the same ticker don't burn through the market-data API's rate
// limit.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockview/market-data-service/internal/config"
	"github.com/stockview/market-data-service/internal/models"
)

// ErrCacheMiss is returned when no cached quote exists for a ticker
var ErrCacheMiss = errors.New("quote not in cache")

// QuoteCache stores the latest quote per ticker with a TTL
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuoteCache connects to Redis and returns a ready-to-use cache
func NewQuoteCache(cfg config.RedisConfig) *QuoteCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &QuoteCache{
		client: client,
		ttl:    cfg.QuoteTTL,
	}
}

// Get retrieves the cached quote for a ticker, or ErrCacheMiss
func (c *QuoteCache) Get(ctx context.Context, ticker string) (*models.Quote, error) {
	data, err := c.client.Get(ctx, quoteKey(ticker)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quote from cache: %w", err)
	}

	var q models.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quote: %w", err)
	}
	return &q, nil
}

// Set stores a quote under its ticker with the configured TTL
func (c *QuoteCache) Set(ctx context.Context, q *models.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	if err := c.client.Set(ctx, quoteKey(q.Ticker), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write quote to cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *QuoteCache) Close() error {
	return c.client.Close()
}

func quoteKey(ticker string) string {
	return "quote:" + ticker
}

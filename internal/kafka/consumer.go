package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stockview/market-data-service/internal/models"
)

// QuoteRepository defines the interface for quote persistence
type QuoteRepository interface {
	UpsertQuote(q *models.Quote) error
	QuoteNewerExists(ticker string, quotedAt time.Time) (bool, error)
}

// Consumer ingests live quote events from Kafka into the latest_quotes
// table. Quote events come from an external poller; the consumer only keeps
// the freshest snapshot per ticker.
type Consumer struct {
	reader *kafka.Reader
	repo   QuoteRepository
}

// NewConsumer creates a new Kafka consumer for quote events
func NewConsumer(brokers []string, topic, groupID string, repo QuoteRepository) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		repo:   repo,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("Starting Kafka consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Kafka consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("Error reading message: %v", err)
				continue
			}

			if err := c.processMessage(msg); err != nil {
				log.Printf("Error processing message: %v", err)
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(msg kafka.Message) error {
	log.Printf("Received message from partition %d offset %d: key=%s",
		msg.Partition, msg.Offset, string(msg.Key))

	var event models.QuoteEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal quote event: %w", err)
	}

	if event.EventType != models.EventQuoteUpdated {
		log.Printf("Ignoring event type: %s", event.EventType)
		return nil
	}

	if event.Quote == nil || event.Quote.Ticker == "" {
		return fmt.Errorf("quote event for %s has no quote payload", event.Ticker)
	}

	// Drop replays and out-of-order snapshots (idempotency)
	newer, err := c.repo.QuoteNewerExists(event.Quote.Ticker, event.Quote.QuotedAt)
	if err != nil {
		return fmt.Errorf("failed to check quote freshness: %w", err)
	}
	if newer {
		log.Printf("Quote for %s at %s is stale, skipping",
			event.Quote.Ticker, event.Quote.QuotedAt.Format(time.RFC3339))
		return nil
	}

	if err := c.repo.UpsertQuote(event.Quote); err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}

	log.Printf("Saved quote: %s @ %s (%s%%)",
		event.Quote.Ticker, event.Quote.Price, event.Quote.ChangePercent)

	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

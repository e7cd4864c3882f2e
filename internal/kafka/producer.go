package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stockview/market-data-service/internal/models"
)

// Producer publishes ingestion events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer for ingestion events
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishDayComplete publishes an event for a date that landed fully
func (p *Producer) PublishDayComplete(ctx context.Context, date time.Time, tickerCount int) error {
	day := date.Format("2006-01-02")
	event := models.IngestionEvent{
		EventType:   models.EventDayComplete,
		Date:        day,
		TickerCount: tickerCount,
		Timestamp:   time.Now(),
	}
	return p.publish(ctx, day, event)
}

// PublishMarketClosed publishes an event for a date confirmed to have had
// no trading
func (p *Producer) PublishMarketClosed(ctx context.Context, date time.Time) error {
	day := date.Format("2006-01-02")
	event := models.IngestionEvent{
		EventType: models.EventMarketClosed,
		Date:      day,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, day, event)
}

// PublishBackfillFinished publishes an event when a full backfill pass ends
func (p *Producer) PublishBackfillFinished(ctx context.Context, processed int) error {
	event := models.IngestionEvent{
		EventType: models.EventBackfillFinished,
		Processed: processed,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, "backfill", event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.IngestionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

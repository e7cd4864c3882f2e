// Command backfill runs one ingestion pass: it extends the completeness
// ledger through yesterday, resumes from the first gap, and pulls daily
// bars from the market-data API until the ledger is current or the process
// is told to stop.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockview/market-data-service/internal/backfill"
	"github.com/stockview/market-data-service/internal/config"
	"github.com/stockview/market-data-service/internal/database"
	"github.com/stockview/market-data-service/internal/kafka"
	"github.com/stockview/market-data-service/internal/models"
	"github.com/stockview/market-data-service/internal/polygon"
)

func main() {
	seed := flag.String("seed", "", "seed the ledger with a starting date (YYYY-MM-DD) before running")
	migrationsPath := flag.String("migrations", "db/migrations", "path to database migrations")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(*migrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if *seed != "" {
		date, err := time.Parse("2006-01-02", *seed)
		if err != nil {
			log.Fatalf("Invalid seed date %q, expected YYYY-MM-DD", *seed)
		}
		err = db.CreateDateStatus(&models.DateStatus{Date: date, CompleteData: false, MarketOpen: true})
		if err != nil {
			log.Fatalf("Failed to seed ledger: %v", err)
		}
		log.Printf("Seeded ledger at %s", *seed)
	}

	tickers, err := db.ListTickers()
	if err != nil {
		log.Fatalf("Failed to load ticker directory: %v", err)
	}
	if len(tickers) == 0 {
		log.Println("Warning: ticker directory is empty, all feed results will be kept")
	}

	client := polygon.New(cfg.Polygon, tickers)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.IngestionTopic)
	defer producer.Close()

	controller := backfill.New(db, client, producer, cfg.Backfill)

	processed, err := controller.Run(ctx)
	switch {
	case errors.Is(err, backfill.ErrLedgerUninitialized):
		log.Fatalf("Ledger is empty: seed it with -seed YYYY-MM-DD before the first run")
	case errors.Is(err, context.Canceled):
		log.Printf("Backfill interrupted after %d dates", processed)
	case err != nil:
		log.Fatalf("Backfill failed after %d dates: %v", processed, err)
	default:
		log.Printf("Backfill finished: %d dates processed", processed)
	}
}

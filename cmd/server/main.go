// Command server exposes the stored market data over HTTP and keeps the
// latest_quotes table fed from the quote-events topic.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockview/market-data-service/internal/api"
	"github.com/stockview/market-data-service/internal/cache"
	"github.com/stockview/market-data-service/internal/config"
	"github.com/stockview/market-data-service/internal/database"
	"github.com/stockview/market-data-service/internal/kafka"
	"github.com/stockview/market-data-service/internal/polygon"
)

func main() {
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

	quoteCache := cache.NewQuoteCache(cfg.Redis)
	defer quoteCache.Close()

	client := polygon.New(cfg.Polygon, nil)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.QuoteTopic, cfg.Kafka.QuoteGroupID, db)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Printf("Quote consumer stopped: %v", err)
		}
	}()

	handler := api.NewHandler(db, quoteCache, client)
	router := api.SetupRoutes(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

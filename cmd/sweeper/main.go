package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prohmpiriya/entrygate/internal/metrics"
	"github.com/prohmpiriya/entrygate/internal/repository"
	"github.com/prohmpiriya/entrygate/internal/service"
	"github.com/prohmpiriya/entrygate/internal/worker"
	"github.com/prohmpiriya/entrygate/pkg/config"
	"github.com/prohmpiriya/entrygate/pkg/database"
	"github.com/prohmpiriya/entrygate/pkg/logger"
)

// Standalone sweeper process. Deploy this when the API runs with more than
// one replica so only one process deletes expired reservations.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: "entrygate-sweeper",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting reservation sweeper...")

	ctx := context.Background()

	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
	}

	// Initialize database connection
	db, err := database.NewPostgres(ctx, &cfg.Database)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// Initialize Kafka event publisher
	var eventPublisher service.EventPublisher
	eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.Topic,
		ClientID: cfg.Kafka.ClientID + "-sweeper",
	})
	if err != nil {
		appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		eventPublisher = service.NewNoOpEventPublisher()
	}
	defer eventPublisher.Close()

	inventoryRepo := repository.NewPostgresInventoryRepository(db.Pool)

	sweeper := worker.NewSweeper(inventoryRepo, eventPublisher, &worker.SweeperConfig{
		SweepInterval: cfg.Engine.SweepInterval,
	})
	if err := sweeper.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start sweeper: %v", err))
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down sweeper...")
	sweeper.Stop()

	stats := sweeper.GetStats()
	appLog.Info(fmt.Sprintf("Sweeper exited (total swept: %d)", stats.TotalSwept))
}

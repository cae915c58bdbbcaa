package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // Import pprof for profiling
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/entrygate/internal/di"
	"github.com/prohmpiriya/entrygate/internal/metrics"
	"github.com/prohmpiriya/entrygate/internal/service"
	"github.com/prohmpiriya/entrygate/internal/ticketcode"
	"github.com/prohmpiriya/entrygate/internal/worker"
	"github.com/prohmpiriya/entrygate/pkg/config"
	"github.com/prohmpiriya/entrygate/pkg/database"
	"github.com/prohmpiriya/entrygate/pkg/logger"
	"github.com/prohmpiriya/entrygate/pkg/middleware"
	pkgredis "github.com/prohmpiriya/entrygate/pkg/redis"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting entry-validation engine...")

	ctx := context.Background()

	// Initialize OpenTelemetry
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn(fmt.Sprintf("Telemetry init failed, continuing without tracing: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

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

	// Initialize Redis connection
	redisClient, err := pkgredis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	// Initialize Kafka event publisher
	var eventPublisher service.EventPublisher
	eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.Topic,
		ClientID: cfg.Kafka.ClientID,
	})
	if err != nil {
		appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		eventPublisher = service.NewNoOpEventPublisher()
	} else {
		appLog.Info("Kafka event publisher connected")
	}
	defer eventPublisher.Close()

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		EventPublisher: eventPublisher,
		Signer:         ticketcode.NewSigner([]byte(cfg.Engine.SigningKey)),
		ServiceConfig: &service.ReservationServiceConfig{
			ReservationTTL: cfg.Engine.ReservationTTL,
			MaxPerPerson:   cfg.Engine.MaxPerPerson,
		},
		SweeperConfig: &worker.SweeperConfig{
			SweepInterval: cfg.Engine.SweepInterval,
		},
	})

	// Start the expired-reservation sweeper
	if err := container.Sweeper.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start sweeper: %v", err))
	}
	defer container.Sweeper.Stop()

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DisableConsoleColor()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// Idempotency middleware for checkout write operations
	idempotencyConfig := middleware.DefaultIdempotencyConfig(redisClient.Client())
	if cfg.Engine.IdempotencyTTL > 0 {
		idempotencyConfig.TTL = cfg.Engine.IdempotencyTTL
	}
	idempotent := middleware.IdempotencyMiddleware(idempotencyConfig)

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"version": cfg.App.Version,
				"service": cfg.App.Name,
			})
		})

		// Inventory
		v1.POST("/ticket-types", container.InventoryHandler.CreateTicketType)
		v1.GET("/ticket-types/:id", container.InventoryHandler.GetTicketType)
		v1.GET("/ticket-types/:id/availability", container.InventoryHandler.GetAvailability)
		v1.GET("/ticket-types/:id/holds", container.CheckoutHandler.ListHolds)
		v1.GET("/events/:event_id/ticket-types", container.InventoryHandler.ListTicketTypes)

		// Checkout: holds and issuance
		checkout := v1.Group("/checkout")
		{
			checkout.POST("/holds", idempotent, container.CheckoutHandler.Hold)
			checkout.GET("/holds/:id", container.CheckoutHandler.GetHold)
			checkout.DELETE("/holds/:id", idempotent, container.CheckoutHandler.Release)
			checkout.POST("/holds/:id/issue", idempotent, container.CheckoutHandler.Issue)
		}

		// Entry validation at the gate
		entry := v1.Group("/entry")
		{
			entry.POST("/scan", container.EntryHandler.Scan)
			entry.POST("/validate", container.EntryHandler.Validate)
			entry.GET("/stats", container.EntryHandler.GetStats)
			entry.GET("/recent", container.EntryHandler.ListRecent)
		}

		// Operator endpoints
		admin := v1.Group("/admin")
		{
			admin.POST("/tickets/:id/refund", idempotent, container.AdminHandler.RefundTicket)
			admin.POST("/tickets/:id/cancel", idempotent, container.AdminHandler.CancelTicket)
			admin.POST("/sweep", container.AdminHandler.Sweep)
			admin.GET("/sweeper/stats", container.AdminHandler.SweeperStats)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Start pprof server on separate port for profiling
	if cfg.IsDevelopment() {
		go func() {
			pprofAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port+1000)
			appLog.Info(fmt.Sprintf("pprof server listening on %s", pprofAddr))
			if err := http.ListenAndServe(pprofAddr, nil); err != nil {
				appLog.Error(fmt.Sprintf("pprof server error: %v", err))
			}
		}()
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Entry-validation engine listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}

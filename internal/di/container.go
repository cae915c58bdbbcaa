package di

import (
	"github.com/prohmpiriya/entrygate/internal/handler"
	"github.com/prohmpiriya/entrygate/internal/repository"
	"github.com/prohmpiriya/entrygate/internal/service"
	"github.com/prohmpiriya/entrygate/internal/ticketcode"
	"github.com/prohmpiriya/entrygate/internal/worker"
	"github.com/prohmpiriya/entrygate/pkg/database"
	"github.com/prohmpiriya/entrygate/pkg/redis"
)

// Container holds all dependencies for the entry-validation engine
type Container struct {
	// Infrastructure
	DB    *database.Postgres
	Redis *redis.Client

	// Repositories
	TxManager     repository.TxManager
	InventoryRepo repository.InventoryRepository
	TicketRepo    repository.TicketRepository
	ScanRepo      repository.ScanRepository

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	InventoryService   service.InventoryService
	ReservationService service.ReservationService
	IssuanceService    service.IssuanceService
	EntryService       service.EntryService
	AdminService       service.AdminService

	// Workers
	Sweeper *worker.Sweeper

	// Handlers
	HealthHandler    *handler.HealthHandler
	InventoryHandler *handler.InventoryHandler
	CheckoutHandler  *handler.CheckoutHandler
	EntryHandler     *handler.EntryHandler
	AdminHandler     *handler.AdminHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB             *database.Postgres
	Redis          *redis.Client
	EventPublisher service.EventPublisher
	Signer         *ticketcode.Signer
	ServiceConfig  *service.ReservationServiceConfig
	SweeperConfig  *worker.SweeperConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		EventPublisher: cfg.EventPublisher,
	}

	// Initialize repositories
	pool := c.DB.Pool
	c.TxManager = repository.NewPgxTxManager(pool)
	c.InventoryRepo = repository.NewPostgresInventoryRepository(pool)
	c.TicketRepo = repository.NewPostgresTicketRepository(pool)
	c.ScanRepo = repository.NewPostgresScanRepository(pool)

	// Initialize services
	c.InventoryService = service.NewInventoryService(c.InventoryRepo)
	c.ReservationService = service.NewReservationService(c.InventoryRepo, cfg.ServiceConfig)
	c.IssuanceService = service.NewIssuanceService(c.TxManager, c.InventoryRepo, c.TicketRepo, cfg.Signer, c.EventPublisher)
	c.EntryService = service.NewEntryService(c.TicketRepo, c.InventoryRepo, c.ScanRepo, cfg.Signer, c.EventPublisher)
	c.AdminService = service.NewAdminService(c.TxManager, c.TicketRepo, c.InventoryRepo, c.EventPublisher)

	// Initialize workers
	c.Sweeper = worker.NewSweeper(c.InventoryRepo, c.EventPublisher, cfg.SweeperConfig)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.InventoryHandler = handler.NewInventoryHandler(c.InventoryService)
	c.CheckoutHandler = handler.NewCheckoutHandler(c.ReservationService, c.IssuanceService)
	c.EntryHandler = handler.NewEntryHandler(c.EntryService)
	c.AdminHandler = handler.NewAdminHandler(c.AdminService, c.Sweeper)

	return c
}

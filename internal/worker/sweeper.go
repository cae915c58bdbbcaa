package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/entrygate/internal/metrics"
	"github.com/prohmpiriya/entrygate/internal/repository"
	"github.com/prohmpiriya/entrygate/internal/service"
	"github.com/prohmpiriya/entrygate/pkg/logger"
)

// SweeperConfig contains configuration for the reservation sweeper
type SweeperConfig struct {
	// SweepInterval is the interval between sweeps of expired reservations
	SweepInterval time.Duration
}

// DefaultSweeperConfig returns default configuration
func DefaultSweeperConfig() *SweeperConfig {
	return &SweeperConfig{
		SweepInterval: 60 * time.Second,
	}
}

// Sweeper periodically deletes expired reservations. Availability and
// promotion already ignore expired rows, so the sweeper only reclaims
// storage and keeps the reservations table small.
type Sweeper struct {
	inventoryRepo  repository.InventoryRepository
	eventPublisher service.EventPublisher
	config         *SweeperConfig
	log            *logger.Logger
	stopCh         chan struct{}
	wg             sync.WaitGroup
	mu             sync.Mutex
	running        bool

	// Stats
	totalSwept     int64
	lastSweepTime  time.Time
	lastSweptCount int64
}

// NewSweeper creates a new reservation sweeper
func NewSweeper(
	inventoryRepo repository.InventoryRepository,
	eventPublisher service.EventPublisher,
	config *SweeperConfig,
) *Sweeper {
	if config == nil {
		config = DefaultSweeperConfig()
	}
	if eventPublisher == nil {
		eventPublisher = service.NewNoOpEventPublisher()
	}

	return &Sweeper{
		inventoryRepo:  inventoryRepo,
		eventPublisher: eventPublisher,
		config:         config,
		log:            logger.Get(),
		stopCh:         make(chan struct{}),
	}
}

// Start starts the sweeper
func (w *Sweeper) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("sweeper already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting reservation sweeper",
		zap.Duration("sweep_interval", w.config.SweepInterval))

	w.wg.Add(1)
	go w.run(ctx)

	return nil
}

// Stop stops the sweeper
func (w *Sweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping reservation sweeper")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Reservation sweeper stopped")
}

// run sweeps on a ticker until stopped
func (w *Sweeper) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep deletes expired reservations once and records the result
func (w *Sweeper) Sweep(ctx context.Context) {
	swept, err := w.inventoryRepo.SweepExpired(ctx)

	w.mu.Lock()
	w.lastSweepTime = time.Now()
	w.mu.Unlock()

	if err != nil {
		w.log.Error("Failed to sweep expired reservations", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.lastSweptCount = swept
	w.totalSwept += swept
	w.mu.Unlock()

	if swept == 0 {
		return
	}

	w.log.Info("Swept expired reservations", zap.Int64("count", swept))
	metrics.RecordSweep(ctx, swept)

	if perr := w.eventPublisher.PublishReservationsSwept(ctx, swept); perr != nil {
		w.log.Error("Failed to publish reservations swept event", zap.Error(perr))
	}
}

// GetStats returns sweeper statistics
func (w *Sweeper) GetStats() *SweeperStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &SweeperStats{
		IsRunning:      w.running,
		TotalSwept:     w.totalSwept,
		LastSweepTime:  w.lastSweepTime,
		LastSweptCount: w.lastSweptCount,
	}
}

// SweeperStats contains sweeper statistics
type SweeperStats struct {
	IsRunning      bool      `json:"is_running"`
	TotalSwept     int64     `json:"total_swept"`
	LastSweepTime  time.Time `json:"last_sweep_time"`
	LastSweptCount int64     `json:"last_swept_count"`
}

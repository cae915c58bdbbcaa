package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prohmpiriya/entrygate/internal/domain"
)

// TxManager runs a function inside a single database transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type TxManager interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// InventoryRepository manages ticket types and timed reservations
type InventoryRepository interface {
	CreateTicketType(ctx context.Context, tt *domain.TicketType) error
	GetTicketType(ctx context.Context, id string) (*domain.TicketType, error)
	ListTicketTypes(ctx context.Context, eventID string) ([]*domain.TicketType, error)

	// GetAvailability computes available = total - sold - held, counting only
	// non-expired reservations.
	GetAvailability(ctx context.Context, ticketTypeID string) (*domain.Availability, error)

	// Hold atomically verifies availability under a row lock and inserts a
	// reservation with the given TTL. Returns ErrInsufficientInventory when
	// the request cannot be satisfied.
	Hold(ctx context.Context, ticketTypeID, sessionID string, quantity int, ttl time.Duration) (*domain.Reservation, error)

	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)

	// ListActiveReservations returns the non-expired holds on a ticket type,
	// oldest first.
	ListActiveReservations(ctx context.Context, ticketTypeID string) ([]*domain.Reservation, error)

	// Release deletes a reservation. Idempotent: releasing a missing or
	// already-swept reservation reports released=false with no error.
	Release(ctx context.Context, reservationID string) (bool, error)

	// PromoteTx consumes a non-expired reservation inside tx, returning the
	// reservation row it deleted. ErrReservationExpired covers both expired
	// and already-removed reservations.
	PromoteTx(ctx context.Context, tx pgx.Tx, reservationID string) (*domain.Reservation, error)

	// AdjustSoldTx moves sold_quantity by delta inside tx. Positive deltas
	// fail with ErrCapacityExceeded when they would pass total_quantity;
	// negative deltas fail with ErrCapacityExceeded when sold would go
	// negative.
	AdjustSoldTx(ctx context.Context, tx pgx.Tx, ticketTypeID string, delta int) error

	// SweepExpired deletes all expired reservations and returns how many
	// rows were removed.
	SweepExpired(ctx context.Context) (int64, error)
}

// TicketRepository manages issued tickets
type TicketRepository interface {
	// InsertTx inserts a ticket inside tx. Returns ErrDuplicateBackupCode on
	// a backup-code collision within the event so the caller can regenerate.
	InsertTx(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error

	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByBackupCode(ctx context.Context, eventID, code string) (*domain.Ticket, error)
	ListByEvent(ctx context.Context, eventID string) ([]*domain.Ticket, error)

	// CheckIn flips an active ticket to used in a single compare-and-set.
	// Returns false when the ticket was not active.
	CheckIn(ctx context.Context, id string, at time.Time, scannerID string) (bool, error)

	// Transition performs a compare-and-set status change used by admin
	// operations. Returns false when the ticket was not in the from status.
	Transition(ctx context.Context, tx pgx.Tx, id string, from, to domain.TicketStatus) (bool, error)
}

// ScanRepository appends and aggregates the entry audit trail
type ScanRepository interface {
	Append(ctx context.Context, record *domain.ScanRecord) error
	GetStats(ctx context.Context, eventID, scannerID string) (*domain.ScanStats, error)
	ListRecent(ctx context.Context, eventID string, limit int) ([]*domain.ScanRecord, error)
}

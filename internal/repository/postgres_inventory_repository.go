package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

// PostgresInventoryRepository implements InventoryRepository using PostgreSQL.
// Holds take a row lock on the ticket type so the availability check and the
// reservation insert are one atomic step.
type PostgresInventoryRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresInventoryRepository creates a new PostgresInventoryRepository
func NewPostgresInventoryRepository(pool *pgxpool.Pool) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{pool: pool}
}

// CreateTicketType inserts a new ticket type
func (r *PostgresInventoryRepository) CreateTicketType(ctx context.Context, tt *domain.TicketType) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.create_ticket_type")
	defer span.End()

	span.SetAttributes(
		attribute.String("ticket_type_id", tt.ID),
		attribute.String("event_id", tt.EventID),
	)

	query := `
		INSERT INTO ticket_types (
			id, event_id, name, unit_price, total_quantity, sold_quantity,
			max_per_person, sale_starts_at, sale_ends_at, entry_closes_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12
		)
	`

	_, err := r.pool.Exec(ctx, query,
		tt.ID,
		tt.EventID,
		tt.Name,
		tt.UnitPrice,
		tt.TotalQuantity,
		tt.SoldQuantity,
		tt.MaxPerPerson,
		tt.SaleStartsAt,
		tt.SaleEndsAt,
		tt.EntryClosesAt,
		tt.CreatedAt,
		tt.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storeErr("failed to create ticket type", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

const ticketTypeColumns = `
	id, event_id, name, unit_price, total_quantity, sold_quantity,
	max_per_person, sale_starts_at, sale_ends_at, entry_closes_at,
	created_at, updated_at
`

func scanTicketType(row pgx.Row) (*domain.TicketType, error) {
	tt := &domain.TicketType{}
	err := row.Scan(
		&tt.ID,
		&tt.EventID,
		&tt.Name,
		&tt.UnitPrice,
		&tt.TotalQuantity,
		&tt.SoldQuantity,
		&tt.MaxPerPerson,
		&tt.SaleStartsAt,
		&tt.SaleEndsAt,
		&tt.EntryClosesAt,
		&tt.CreatedAt,
		&tt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tt, nil
}

// GetTicketType retrieves a ticket type by its ID
func (r *PostgresInventoryRepository) GetTicketType(ctx context.Context, id string) (*domain.TicketType, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.get_ticket_type")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_type_id", id))

	query := `SELECT ` + ticketTypeColumns + ` FROM ticket_types WHERE id = $1`

	tt, err := scanTicketType(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTicketTypeNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to get ticket type", err)
	}

	span.SetStatus(codes.Ok, "")
	return tt, nil
}

// ListTicketTypes retrieves all ticket types for an event
func (r *PostgresInventoryRepository) ListTicketTypes(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.list_ticket_types")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	query := `SELECT ` + ticketTypeColumns + ` FROM ticket_types WHERE event_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to list ticket types", err)
	}
	defer rows.Close()

	var result []*domain.TicketType
	for rows.Next() {
		tt, err := scanTicketType(rows)
		if err != nil {
			span.RecordError(err)
			return nil, storeErr("failed to scan ticket type", err)
		}
		result = append(result, tt)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, storeErr("failed to iterate ticket types", err)
	}

	span.SetStatus(codes.Ok, "")
	return result, nil
}

// GetAvailability computes live availability for a ticket type. Expired
// reservations are excluded by predicate, not by waiting for the sweeper.
func (r *PostgresInventoryRepository) GetAvailability(ctx context.Context, ticketTypeID string) (*domain.Availability, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.get_availability")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_type_id", ticketTypeID))

	query := `
		SELECT
			tt.total_quantity,
			tt.sold_quantity,
			COALESCE((
				SELECT SUM(r.quantity)
				FROM reservations r
				WHERE r.ticket_type_id = tt.id AND r.expires_at > now()
			), 0) AS held
		FROM ticket_types tt
		WHERE tt.id = $1
	`

	var total, sold, held int
	err := r.pool.QueryRow(ctx, query, ticketTypeID).Scan(&total, &sold, &held)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTicketTypeNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to get availability", err)
	}

	span.SetStatus(codes.Ok, "")
	return &domain.Availability{
		TicketTypeID: ticketTypeID,
		Available:    total - sold - held,
		Sold:         sold,
		Held:         held,
		Total:        total,
	}, nil
}

// Hold places a timed reservation. The ticket type row is locked for the
// duration of the check-then-insert so concurrent holds serialize and the
// sum of sold plus live holds never passes total.
func (r *PostgresInventoryRepository) Hold(ctx context.Context, ticketTypeID, sessionID string, quantity int, ttl time.Duration) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.hold")
	defer span.End()

	span.SetAttributes(
		attribute.String("ticket_type_id", ticketTypeID),
		attribute.String("session_id", sessionID),
		attribute.Int("quantity", quantity),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to begin hold transaction", err)
	}
	defer tx.Rollback(ctx)

	var total, sold int
	err = tx.QueryRow(ctx,
		`SELECT total_quantity, sold_quantity FROM ticket_types WHERE id = $1 FOR UPDATE`,
		ticketTypeID,
	).Scan(&total, &sold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTicketTypeNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to lock ticket type", err)
	}

	var held int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM reservations WHERE ticket_type_id = $1 AND expires_at > now()`,
		ticketTypeID,
	).Scan(&held)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to sum live holds", err)
	}

	if total-sold-held < quantity {
		span.SetStatus(codes.Error, "insufficient inventory")
		span.SetAttributes(attribute.Int("available", total-sold-held))
		return nil, domain.ErrInsufficientInventory
	}

	now := time.Now()
	reservation := &domain.Reservation{
		ID:           uuid.New().String(),
		TicketTypeID: ticketTypeID,
		SessionID:    sessionID,
		Quantity:     quantity,
		ReservedAt:   now,
		ExpiresAt:    now.Add(ttl),
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO reservations (id, ticket_type_id, session_id, quantity, reserved_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		reservation.ID,
		reservation.TicketTypeID,
		reservation.SessionID,
		reservation.Quantity,
		reservation.ReservedAt,
		reservation.ExpiresAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to insert reservation", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to commit hold", err)
	}

	span.SetStatus(codes.Ok, "")
	return reservation, nil
}

// GetReservation retrieves a reservation by its ID
func (r *PostgresInventoryRepository) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.get_reservation")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	query := `
		SELECT id, ticket_type_id, session_id, quantity, reserved_at, expires_at
		FROM reservations
		WHERE id = $1
	`

	res := &domain.Reservation{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&res.ID,
		&res.TicketTypeID,
		&res.SessionID,
		&res.Quantity,
		&res.ReservedAt,
		&res.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrReservationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to get reservation", err)
	}

	span.SetStatus(codes.Ok, "")
	return res, nil
}

// ListActiveReservations returns the live holds on a ticket type
func (r *PostgresInventoryRepository) ListActiveReservations(ctx context.Context, ticketTypeID string) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.list_active_reservations")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_type_id", ticketTypeID))

	query := `
		SELECT id, ticket_type_id, session_id, quantity, reserved_at, expires_at
		FROM reservations
		WHERE ticket_type_id = $1 AND expires_at > now()
		ORDER BY reserved_at
	`

	rows, err := r.pool.Query(ctx, query, ticketTypeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to list active reservations", err)
	}
	defer rows.Close()

	reservations := []*domain.Reservation{}
	for rows.Next() {
		res := &domain.Reservation{}
		if err := rows.Scan(
			&res.ID,
			&res.TicketTypeID,
			&res.SessionID,
			&res.Quantity,
			&res.ReservedAt,
			&res.ExpiresAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, storeErr("failed to scan reservation", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to read reservations", err)
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Int("count", len(reservations)))
	return reservations, nil
}

// Release deletes a reservation. Missing rows are not an error: a retry
// after the sweeper got there first must still succeed.
func (r *PostgresInventoryRepository) Release(ctx context.Context, reservationID string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.release")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	tag, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, reservationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, storeErr("failed to release reservation", err)
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Bool("released", tag.RowsAffected() > 0))
	return tag.RowsAffected() > 0, nil
}

// PromoteTx consumes a live reservation inside tx. Deleting and returning
// the row in one statement means a concurrent promote, release, or sweep of
// the same reservation can never double-consume it.
func (r *PostgresInventoryRepository) PromoteTx(ctx context.Context, tx pgx.Tx, reservationID string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.promote")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	query := `
		DELETE FROM reservations
		WHERE id = $1 AND expires_at > now()
		RETURNING id, ticket_type_id, session_id, quantity, reserved_at, expires_at
	`

	res := &domain.Reservation{}
	err := tx.QueryRow(ctx, query, reservationID).Scan(
		&res.ID,
		&res.TicketTypeID,
		&res.SessionID,
		&res.Quantity,
		&res.ReservedAt,
		&res.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "expired or gone")
			return nil, domain.ErrReservationExpired
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to promote reservation", err)
	}

	span.SetStatus(codes.Ok, "")
	return res, nil
}

// AdjustSoldTx moves sold_quantity by delta with capacity enforced in the
// WHERE clause, so an over-capacity or below-zero move affects zero rows.
func (r *PostgresInventoryRepository) AdjustSoldTx(ctx context.Context, tx pgx.Tx, ticketTypeID string, delta int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.adjust_sold")
	defer span.End()

	span.SetAttributes(
		attribute.String("ticket_type_id", ticketTypeID),
		attribute.Int("delta", delta),
	)

	query := `
		UPDATE ticket_types
		SET sold_quantity = sold_quantity + $2, updated_at = now()
		WHERE id = $1
		  AND sold_quantity + $2 >= 0
		  AND sold_quantity + $2 <= total_quantity
	`

	tag, err := tx.Exec(ctx, query, ticketTypeID, delta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storeErr("failed to adjust sold quantity", err)
	}

	if tag.RowsAffected() == 0 {
		// Either the ticket type is missing or the move violates a bound.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ticket_types WHERE id = $1)`, ticketTypeID).Scan(&exists); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return storeErr("failed to check ticket type", err)
		}
		err := adjustSoldViolation(exists, delta)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// adjustSoldViolation maps a zero-row adjustment to the bound it violated.
// A negative delta can only underflow sold below zero; a positive one can
// only push it past total capacity.
func adjustSoldViolation(exists bool, delta int) error {
	if !exists {
		return domain.ErrTicketTypeNotFound
	}
	if delta < 0 {
		return domain.ErrInvalidQuantity
	}
	return domain.ErrCapacityExceeded
}

// SweepExpired deletes every expired reservation. Safe to run concurrently
// with holds, releases, and promotes: each statement only touches rows the
// others no longer want.
func (r *PostgresInventoryRepository) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.sweep_expired")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE expires_at <= now()`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, storeErr("failed to sweep expired reservations", err)
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Int64("swept", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

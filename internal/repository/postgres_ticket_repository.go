package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

// PostgresTicketRepository implements TicketRepository using PostgreSQL
type PostgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository
func NewPostgresTicketRepository(pool *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{pool: pool}
}

const uniqueViolationCode = "23505"

// InsertTx inserts a ticket inside tx
func (r *PostgresTicketRepository) InsertTx(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.insert")
	defer span.End()

	span.SetAttributes(
		attribute.String("ticket_id", ticket.ID),
		attribute.String("event_id", ticket.EventID),
	)

	query := `
		INSERT INTO tickets (
			id, event_id, ticket_type_id,
			holder_name, holder_email, holder_phone,
			scan_code, backup_code, status,
			issued_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9,
			$10, $11
		)
	`

	_, err := tx.Exec(ctx, query,
		ticket.ID,
		ticket.EventID,
		ticket.TicketTypeID,
		ticket.Holder.Name,
		ticket.Holder.Email,
		ticket.Holder.Phone,
		ticket.ScanCode,
		ticket.BackupCode,
		ticket.Status.String(),
		ticket.IssuedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			span.SetStatus(codes.Error, "duplicate backup code")
			return domain.ErrDuplicateBackupCode
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storeErr("failed to insert ticket", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

const ticketColumns = `
	id, event_id, ticket_type_id,
	holder_name, holder_email, holder_phone,
	scan_code, backup_code, status,
	checked_in_at, checked_in_by, issued_at, updated_at
`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	var status string
	var checkedInBy *string
	err := row.Scan(
		&t.ID,
		&t.EventID,
		&t.TicketTypeID,
		&t.Holder.Name,
		&t.Holder.Email,
		&t.Holder.Phone,
		&t.ScanCode,
		&t.BackupCode,
		&status,
		&t.CheckedInAt,
		&checkedInBy,
		&t.IssuedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TicketStatus(status)
	if checkedInBy != nil {
		t.CheckedInBy = *checkedInBy
	}
	return t, nil
}

// GetByID retrieves a ticket by its ID
func (r *PostgresTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_id", id))

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	t, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTicketNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to get ticket", err)
	}

	span.SetStatus(codes.Ok, "")
	return t, nil
}

// GetByBackupCode retrieves a ticket by event and backup code. Backup codes
// are only unique within an event, so the event scopes the lookup.
func (r *PostgresTicketRepository) GetByBackupCode(ctx context.Context, eventID, code string) (*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.get_by_backup_code")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 AND backup_code = $2`

	t, err := scanTicket(r.pool.QueryRow(ctx, query, eventID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTicketNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to get ticket by backup code", err)
	}

	span.SetStatus(codes.Ok, "")
	return t, nil
}

// ListByEvent retrieves all tickets for an event
func (r *PostgresTicketRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.list_by_event")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 ORDER BY issued_at`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to list tickets", err)
	}
	defer rows.Close()

	var result []*domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			span.RecordError(err)
			return nil, storeErr("failed to scan ticket", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, storeErr("failed to iterate tickets", err)
	}

	span.SetStatus(codes.Ok, "")
	return result, nil
}

// CheckIn flips an active ticket to used in one compare-and-set. Two
// scanners racing on the same ticket get exactly one true between them.
func (r *PostgresTicketRepository) CheckIn(ctx context.Context, id string, at time.Time, scannerID string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.check_in")
	defer span.End()

	span.SetAttributes(
		attribute.String("ticket_id", id),
		attribute.String("scanner_id", scannerID),
	)

	query := `
		UPDATE tickets
		SET status = 'used', checked_in_at = $2, checked_in_by = $3, updated_at = $2
		WHERE id = $1 AND status = 'active'
	`

	tag, err := r.pool.Exec(ctx, query, id, at, scannerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, storeErr("failed to check in ticket", err)
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Bool("admitted", tag.RowsAffected() > 0))
	return tag.RowsAffected() > 0, nil
}

// Transition performs a compare-and-set status change inside tx
func (r *PostgresTicketRepository) Transition(ctx context.Context, tx pgx.Tx, id string, from, to domain.TicketStatus) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.transition")
	defer span.End()

	span.SetAttributes(
		attribute.String("ticket_id", id),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	)

	query := `
		UPDATE tickets
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`

	tag, err := tx.Exec(ctx, query, id, from.String(), to.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, storeErr("failed to transition ticket", err)
	}

	span.SetStatus(codes.Ok, "")
	return tag.RowsAffected() > 0, nil
}

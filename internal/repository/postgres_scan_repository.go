package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

// PostgresScanRepository implements ScanRepository using PostgreSQL. The
// scan_records table is append-only.
type PostgresScanRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresScanRepository creates a new PostgresScanRepository
func NewPostgresScanRepository(pool *pgxpool.Pool) *PostgresScanRepository {
	return &PostgresScanRepository{pool: pool}
}

// Append inserts a scan record
func (r *PostgresScanRepository) Append(ctx context.Context, record *domain.ScanRecord) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.scan.append")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", record.EventID),
		attribute.String("scanner_id", record.ScannerID),
		attribute.String("outcome", string(record.Outcome)),
	)

	query := `
		INSERT INTO scan_records (id, ticket_id, event_id, scanner_id, method, outcome, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.TicketID,
		record.EventID,
		record.ScannerID,
		string(record.Method),
		string(record.Outcome),
		record.Timestamp,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storeErr("failed to append scan record", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetStats aggregates scan counts for a scanner at an event
func (r *PostgresScanRepository) GetStats(ctx context.Context, eventID, scannerID string) (*domain.ScanStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.scan.get_stats")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("scanner_id", scannerID),
	)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE outcome = 'admitted'),
			COUNT(*) FILTER (WHERE outcome <> 'admitted'),
			MAX(scanned_at)
		FROM scan_records
		WHERE event_id = $1 AND scanner_id = $2
	`

	stats := &domain.ScanStats{EventID: eventID, ScannerID: scannerID}
	err := r.pool.QueryRow(ctx, query, eventID, scannerID).Scan(
		&stats.TotalScans,
		&stats.SuccessfulScans,
		&stats.FailedScans,
		&stats.LastScanAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to get scan stats", err)
	}

	span.SetStatus(codes.Ok, "")
	return stats, nil
}

// ListRecent returns the most recent scan records for an event
func (r *PostgresScanRepository) ListRecent(ctx context.Context, eventID string, limit int) ([]*domain.ScanRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.scan.list_recent")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("limit", limit),
	)

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, ticket_id, event_id, scanner_id, method, outcome, scanned_at
		FROM scan_records
		WHERE event_id = $1
		ORDER BY scanned_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, eventID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("failed to list scan records", err)
	}
	defer rows.Close()

	var result []*domain.ScanRecord
	for rows.Next() {
		rec := &domain.ScanRecord{}
		var method, outcome string
		if err := rows.Scan(&rec.ID, &rec.TicketID, &rec.EventID, &rec.ScannerID, &method, &outcome, &rec.Timestamp); err != nil {
			span.RecordError(err)
			return nil, storeErr("failed to scan record", err)
		}
		rec.Method = domain.ScanMethod(method)
		rec.Outcome = domain.ScanOutcome(outcome)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, storeErr("failed to iterate scan records", err)
	}

	span.SetStatus(codes.Ok, "")
	return result, nil
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
	"github.com/prohmpiriya/entrygate/internal/metrics"
	"github.com/prohmpiriya/entrygate/internal/repository"
	"github.com/prohmpiriya/entrygate/internal/ticketcode"
	"github.com/prohmpiriya/entrygate/pkg/logger"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

// EntryService validates codes at the door and admits ticket holders
type EntryService interface {
	// Scan resolves a code, renders a verdict, flips the ticket to used on
	// success, and appends an audit record for every attempt.
	Scan(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error)

	// Validate renders the same verdict as Scan without consuming the
	// ticket and without touching the audit trail.
	Validate(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error)

	// GetStats aggregates scan counts for a scanner at an event
	GetStats(ctx context.Context, eventID, scannerID string) (*dto.ScanStatsResponse, error)

	// ListRecent returns the latest audit records for an event
	ListRecent(ctx context.Context, eventID string, limit int) ([]*dto.ScanRecordResponse, error)
}

type entryService struct {
	ticketRepo     repository.TicketRepository
	inventoryRepo  repository.InventoryRepository
	scanRepo       repository.ScanRepository
	signer         *ticketcode.Signer
	eventPublisher EventPublisher
}

// NewEntryService creates a new entry service
func NewEntryService(
	ticketRepo repository.TicketRepository,
	inventoryRepo repository.InventoryRepository,
	scanRepo repository.ScanRepository,
	signer *ticketcode.Signer,
	eventPublisher EventPublisher,
) EntryService {
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &entryService{
		ticketRepo:     ticketRepo,
		inventoryRepo:  inventoryRepo,
		scanRepo:       scanRepo,
		signer:         signer,
		eventPublisher: eventPublisher,
	}
}

// verdict carries the intermediate result of code resolution
type verdict struct {
	outcome domain.ScanOutcome
	method  domain.ScanMethod
	ticket  *domain.Ticket
}

// Scan resolves a code and admits or rejects the holder
func (s *entryService) Scan(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.entry.scan")
	defer span.End()

	start := time.Now()

	if err := validateScanRequest(req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("scanner_id", req.ScannerID),
	)

	v, err := s.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := time.Now()
	if v.outcome == domain.ScanOutcomeAdmitted {
		// The verdict is provisional until the compare-and-set wins. A
		// concurrent scan of the same ticket turns this into already_used.
		ok, err := s.ticketRepo.CheckIn(ctx, v.ticket.ID, now, req.ScannerID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if ok {
			v.ticket.Status = domain.TicketStatusUsed
			v.ticket.CheckedInAt = &now
			v.ticket.CheckedInBy = req.ScannerID
		} else {
			v.outcome = domain.ScanOutcomeAlreadyUsed
		}
	}

	s.appendAudit(ctx, req, v, now)
	metrics.RecordScan(ctx, req.EventID, string(v.outcome), time.Since(start).Seconds())

	if v.outcome == domain.ScanOutcomeAdmitted {
		if err := s.eventPublisher.PublishEntryAdmitted(ctx, req.EventID, &domain.EntryAdmittedPayload{
			TicketID:  v.ticket.ID,
			ScannerID: req.ScannerID,
			Method:    string(v.method),
			At:        now,
		}); err != nil {
			logger.Get().Error("failed to publish entry.admitted event",
				zap.String("ticket_id", v.ticket.ID),
				zap.Error(err))
		}
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.String("outcome", string(v.outcome)))
	return scanResponse(v, now), nil
}

// Validate renders a verdict without consuming the ticket
func (s *entryService) Validate(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.entry.validate")
	defer span.End()

	if err := validateScanRequest(req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	v, err := s.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.String("outcome", string(v.outcome)))
	return scanResponse(v, time.Now()), nil
}

// resolve classifies the raw code, loads the ticket, and renders every
// verdict short of the final compare-and-set. Only genuinely unresolvable
// codes become not_found; a store failure during lookup is an error, never
// a verdict.
func (s *entryService) resolve(ctx context.Context, req *dto.ScanRequest) (verdict, error) {
	normalized, class := ticketcode.Classify(req.Code)

	v := verdict{method: domain.ScanMethodScanCode}

	switch class {
	case ticketcode.ClassBackupCode:
		v.method = domain.ScanMethodBackupCode
		ticket, err := s.ticketRepo.GetByBackupCode(ctx, req.EventID, normalized)
		if err != nil {
			if domain.IsNotFoundError(err) {
				v.outcome = domain.ScanOutcomeNotFound
				return v, nil
			}
			return v, err
		}
		v.ticket = ticket

	case ticketcode.ClassScanCode:
		payload, err := s.signer.Decode(normalized)
		if err != nil {
			// Malformed or forged payloads read the same as unknown codes.
			v.outcome = domain.ScanOutcomeNotFound
			return v, nil
		}
		if payload.EventID != req.EventID {
			v.outcome = domain.ScanOutcomeWrongEvent
			return v, nil
		}
		ticket, err := s.ticketRepo.GetByID(ctx, payload.TicketID)
		if err != nil {
			if domain.IsNotFoundError(err) {
				v.outcome = domain.ScanOutcomeNotFound
				return v, nil
			}
			return v, err
		}
		v.ticket = ticket
	}

	// Backup codes are scoped to the event at lookup, so a mismatch here
	// can only come from a scan payload pointing at a moved ticket.
	if v.ticket.EventID != req.EventID {
		v.outcome = domain.ScanOutcomeWrongEvent
		return v, nil
	}

	tt, err := s.inventoryRepo.GetTicketType(ctx, v.ticket.TicketTypeID)
	if err != nil {
		// A dangling ticket-type reference just skips the window check; a
		// store failure must not let the gate bypass it.
		if !domain.IsNotFoundError(err) {
			return v, err
		}
	} else if !tt.EntryOpenAt(time.Now()) {
		v.outcome = domain.ScanOutcomeExpiredWindow
		return v, nil
	}

	if !v.ticket.IsActive() {
		v.outcome = domain.ScanOutcomeAlreadyUsed
		return v, nil
	}

	v.outcome = domain.ScanOutcomeAdmitted
	return v, nil
}

// appendAudit records the attempt. Audit failures never change the verdict
// the gate already acted on.
func (s *entryService) appendAudit(ctx context.Context, req *dto.ScanRequest, v verdict, at time.Time) {
	record := &domain.ScanRecord{
		ID:        uuid.New().String(),
		EventID:   req.EventID,
		ScannerID: req.ScannerID,
		Method:    v.method,
		Outcome:   v.outcome,
		Timestamp: at,
	}
	if v.ticket != nil {
		id := v.ticket.ID
		record.TicketID = &id
	}

	if err := s.scanRepo.Append(ctx, record); err != nil {
		logger.Get().Error("failed to append scan record",
			zap.String("event_id", req.EventID),
			zap.String("scanner_id", req.ScannerID),
			zap.String("outcome", string(v.outcome)),
			zap.Error(err))
	}
}

// GetStats aggregates scan counts for a scanner at an event
func (s *entryService) GetStats(ctx context.Context, eventID, scannerID string) (*dto.ScanStatsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.entry.get_stats")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if scannerID == "" {
		span.SetStatus(codes.Error, "invalid scanner_id")
		return nil, domain.ErrInvalidScannerID
	}

	stats, err := s.scanRepo.GetStats(ctx, eventID, scannerID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.ScanStatsFromDomain(stats), nil
}

// ListRecent returns the latest audit records for an event
func (s *entryService) ListRecent(ctx context.Context, eventID string, limit int) ([]*dto.ScanRecordResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.entry.list_recent")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}

	records, err := s.scanRepo.ListRecent(ctx, eventID, limit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]*dto.ScanRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.ScanRecordFromDomain(r))
	}

	span.SetStatus(codes.Ok, "")
	return out, nil
}

func validateScanRequest(req *dto.ScanRequest) error {
	if req == nil || req.EventID == "" {
		return domain.ErrInvalidEventID
	}
	if req.ScannerID == "" {
		return domain.ErrInvalidScannerID
	}
	if req.Code == "" {
		return domain.ErrMalformedCode
	}
	return nil
}

func scanResponse(v verdict, at time.Time) *dto.ScanResponse {
	resp := &dto.ScanResponse{
		Outcome:   string(v.outcome),
		Admitted:  v.outcome.Admitted(),
		ScannedAt: at,
	}
	if v.ticket != nil {
		resp.Ticket = dto.TicketFromDomain(v.ticket)
	}
	return resp
}

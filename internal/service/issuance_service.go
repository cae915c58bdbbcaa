package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

// maxIssueAttempts bounds retries on backup-code collisions. With a 31^7
// code space a single retry is already vanishingly unlikely.
const maxIssueAttempts = 3

// IssuanceService converts reservations into tickets
type IssuanceService interface {
	// Issue consumes a live reservation and mints one ticket per held unit.
	// All-or-nothing: a failure leaves the reservation untouched.
	Issue(ctx context.Context, reservationID string, req *dto.IssueRequest) (*dto.IssueResponse, error)
}

type issuanceService struct {
	txm            repository.TxManager
	inventoryRepo  repository.InventoryRepository
	ticketRepo     repository.TicketRepository
	signer         *ticketcode.Signer
	eventPublisher EventPublisher
}

// NewIssuanceService creates a new issuance service
func NewIssuanceService(
	txm repository.TxManager,
	inventoryRepo repository.InventoryRepository,
	ticketRepo repository.TicketRepository,
	signer *ticketcode.Signer,
	eventPublisher EventPublisher,
) IssuanceService {
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &issuanceService{
		txm:            txm,
		inventoryRepo:  inventoryRepo,
		ticketRepo:     ticketRepo,
		signer:         signer,
		eventPublisher: eventPublisher,
	}
}

// Issue consumes a live reservation and mints tickets
func (s *issuanceService) Issue(ctx context.Context, reservationID string, req *dto.IssueRequest) (*dto.IssueResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.issuance.issue")
	defer span.End()

	if reservationID == "" {
		span.SetStatus(codes.Error, "reservation not found")
		return nil, domain.ErrReservationNotFound
	}
	if req == nil || req.Holder.Name == "" {
		span.SetStatus(codes.Error, "invalid holder")
		return nil, domain.ErrInvalidHolder
	}

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	// The event id lives on the ticket type, which the reservation points at.
	res, err := s.inventoryRepo.GetReservation(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	tt, err := s.inventoryRepo.GetTicketType(ctx, res.TicketTypeID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	holder := domain.Holder{
		Name:  req.Holder.Name,
		Email: req.Holder.Email,
		Phone: req.Holder.Phone,
	}

	var tickets []*domain.Ticket
	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		tickets, lastErr = s.issueOnce(ctx, reservationID, tt, holder)
		if lastErr == nil || !errors.Is(lastErr, domain.ErrDuplicateBackupCode) {
			break
		}
		logger.Get().Warn("backup code collision, retrying issuance",
			zap.String("reservation_id", reservationID),
			zap.Int("attempt", attempt+1))
	}
	if lastErr != nil {
		span.SetStatus(codes.Error, lastErr.Error())
		metrics.RecordIssuanceFailure(ctx, issuanceFailureReason(lastErr))
		return nil, lastErr
	}

	metrics.RecordIssuance(ctx, tt.ID, len(tickets))

	ticketIDs := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ticketIDs = append(ticketIDs, t.ID)
	}
	if err := s.eventPublisher.PublishTicketsIssued(ctx, tt.EventID, &domain.TicketsIssuedPayload{
		ReservationID: reservationID,
		TicketTypeID:  tt.ID,
		TicketIDs:     ticketIDs,
		Quantity:      len(tickets),
	}); err != nil {
		// Publishing is best-effort: the tickets are already committed.
		logger.Get().Error("failed to publish ticket.issued event",
			zap.String("reservation_id", reservationID),
			zap.Error(err))
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Int("tickets_issued", len(tickets)))
	return &dto.IssueResponse{
		ReservationID: reservationID,
		Tickets:       dto.TicketsFromDomain(tickets),
	}, nil
}

// issueOnce runs one full promote-count-insert transaction. Rolling back on
// any error puts the reservation back exactly as it was, so no compensation
// path exists.
func (s *issuanceService) issueOnce(ctx context.Context, reservationID string, tt *domain.TicketType, holder domain.Holder) ([]*domain.Ticket, error) {
	var tickets []*domain.Ticket

	err := s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		res, err := s.inventoryRepo.PromoteTx(ctx, tx, reservationID)
		if err != nil {
			return err
		}

		if err := s.inventoryRepo.AdjustSoldTx(ctx, tx, res.TicketTypeID, res.Quantity); err != nil {
			return err
		}

		now := time.Now()
		tickets = make([]*domain.Ticket, 0, res.Quantity)
		for i := 0; i < res.Quantity; i++ {
			backupCode, err := ticketcode.NewBackupCode()
			if err != nil {
				return err
			}

			ticket := &domain.Ticket{
				ID:           uuid.New().String(),
				EventID:      tt.EventID,
				TicketTypeID: tt.ID,
				Holder:       holder,
				BackupCode:   backupCode,
				Status:       domain.TicketStatusActive,
				IssuedAt:     now,
				UpdatedAt:    now,
			}
			ticket.ScanCode = s.signer.Encode(tt.EventID, ticket.ID)

			if err := s.ticketRepo.InsertTx(ctx, tx, ticket); err != nil {
				return err
			}
			tickets = append(tickets, ticket)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func issuanceFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrReservationExpired):
		return "reservation_expired"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrDuplicateBackupCode):
		return "backup_code_collision"
	default:
		return "internal"
	}
}

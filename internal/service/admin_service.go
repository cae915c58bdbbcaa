package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
	"github.com/prohmpiriya/entrygate/internal/repository"
	"github.com/prohmpiriya/entrygate/pkg/logger"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

// AdminService performs operator-only ticket transitions
type AdminService interface {
	// Refund moves an active ticket to refunded and returns its unit to the
	// sellable pool.
	Refund(ctx context.Context, ticketID string) (*dto.TransitionResponse, error)

	// Cancel moves an active ticket to cancelled and returns its unit to the
	// sellable pool.
	Cancel(ctx context.Context, ticketID string) (*dto.TransitionResponse, error)
}

type adminService struct {
	txm            repository.TxManager
	ticketRepo     repository.TicketRepository
	inventoryRepo  repository.InventoryRepository
	eventPublisher EventPublisher
}

// NewAdminService creates a new admin service
func NewAdminService(
	txm repository.TxManager,
	ticketRepo repository.TicketRepository,
	inventoryRepo repository.InventoryRepository,
	eventPublisher EventPublisher,
) AdminService {
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &adminService{
		txm:            txm,
		ticketRepo:     ticketRepo,
		inventoryRepo:  inventoryRepo,
		eventPublisher: eventPublisher,
	}
}

// Refund moves an active ticket to refunded
func (s *adminService) Refund(ctx context.Context, ticketID string) (*dto.TransitionResponse, error) {
	return s.transition(ctx, ticketID, domain.TicketStatusRefunded, domain.TicketEventRefund)
}

// Cancel moves an active ticket to cancelled
func (s *adminService) Cancel(ctx context.Context, ticketID string) (*dto.TransitionResponse, error) {
	return s.transition(ctx, ticketID, domain.TicketStatusCancelled, domain.TicketEventCancel)
}

// transition runs the compare-and-set plus the inventory return in one
// transaction. Only active tickets move; used, refunded, and cancelled are
// terminal.
func (s *adminService) transition(ctx context.Context, ticketID string, to domain.TicketStatus, eventType domain.TicketEventType) (*dto.TransitionResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.admin.transition")
	defer span.End()

	if ticketID == "" {
		span.SetStatus(codes.Error, "ticket not found")
		return nil, domain.ErrTicketNotFound
	}

	span.SetAttributes(
		attribute.String("ticket_id", ticketID),
		attribute.String("to", to.String()),
	)

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	err = s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		ok, terr := s.ticketRepo.Transition(ctx, tx, ticketID, domain.TicketStatusActive, to)
		if terr != nil {
			return terr
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		// The unit goes back on sale.
		return s.inventoryRepo.AdjustSoldTx(ctx, tx, ticket.TicketTypeID, -1)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if perr := s.eventPublisher.PublishTicketTransition(ctx, eventType, ticket.EventID, &domain.TicketTransitionPayload{
		TicketID: ticketID,
		Status:   to.String(),
	}); perr != nil {
		logger.Get().Error("failed to publish ticket transition event",
			zap.String("ticket_id", ticketID),
			zap.Error(perr))
	}

	span.SetStatus(codes.Ok, "")
	return &dto.TransitionResponse{TicketID: ticketID, Status: to.String()}, nil
}

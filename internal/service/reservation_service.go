package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
	"github.com/prohmpiriya/entrygate/internal/metrics"
	"github.com/prohmpiriya/entrygate/internal/repository"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

// ReservationService defines checkout hold operations
type ReservationService interface {
	// Hold places a timed reservation on inventory
	Hold(ctx context.Context, req *dto.HoldRequest) (*dto.HoldResponse, error)

	// Release frees a reservation before it expires. Idempotent.
	Release(ctx context.Context, reservationID string) (*dto.ReleaseResponse, error)

	// GetReservation retrieves a reservation by ID
	GetReservation(ctx context.Context, reservationID string) (*dto.HoldResponse, error)

	// ListActive returns the live holds on a ticket type
	ListActive(ctx context.Context, ticketTypeID string) ([]*dto.HoldResponse, error)
}

type reservationService struct {
	inventoryRepo  repository.InventoryRepository
	reservationTTL time.Duration
	maxPerPerson   int
}

// ReservationServiceConfig contains configuration for the reservation service
type ReservationServiceConfig struct {
	ReservationTTL time.Duration
	// MaxPerPerson caps a single hold when the ticket type sets no cap of
	// its own.
	MaxPerPerson int
}

// NewReservationService creates a new reservation service
func NewReservationService(inventoryRepo repository.InventoryRepository, cfg *ReservationServiceConfig) ReservationService {
	ttl := domain.DefaultReservationTTL
	maxPerPerson := 10
	if cfg != nil {
		if cfg.ReservationTTL > 0 {
			ttl = cfg.ReservationTTL
		}
		if cfg.MaxPerPerson > 0 {
			maxPerPerson = cfg.MaxPerPerson
		}
	}
	return &reservationService{
		inventoryRepo:  inventoryRepo,
		reservationTTL: ttl,
		maxPerPerson:   maxPerPerson,
	}
}

// Hold places a timed reservation on inventory
func (s *reservationService) Hold(ctx context.Context, req *dto.HoldRequest) (*dto.HoldResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.hold")
	defer span.End()

	if req == nil || req.Quantity <= 0 {
		span.SetStatus(codes.Error, "invalid quantity")
		return nil, domain.ErrInvalidQuantity
	}
	if req.TicketTypeID == "" {
		span.SetStatus(codes.Error, "invalid ticket type")
		return nil, domain.ErrInvalidTicketType
	}
	if req.SessionID == "" {
		span.SetStatus(codes.Error, "invalid session")
		return nil, domain.ErrInvalidSessionID
	}

	span.SetAttributes(
		attribute.String("ticket_type_id", req.TicketTypeID),
		attribute.String("session_id", req.SessionID),
		attribute.Int("quantity", req.Quantity),
	)

	tt, err := s.inventoryRepo.GetTicketType(ctx, req.TicketTypeID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	perPerson := tt.MaxPerPerson
	if perPerson <= 0 {
		perPerson = s.maxPerPerson
	}
	if req.Quantity > perPerson {
		span.SetStatus(codes.Error, "over per-person cap")
		metrics.RecordHoldFailure(ctx, req.TicketTypeID, "quantity_cap")
		return nil, domain.ErrInvalidQuantity
	}

	now := time.Now()
	if !tt.OnSaleAt(now) {
		span.SetStatus(codes.Error, "sale window closed")
		metrics.RecordHoldFailure(ctx, req.TicketTypeID, "sale_window")
		return nil, domain.ErrSaleWindowClosed
	}

	res, err := s.inventoryRepo.Hold(ctx, req.TicketTypeID, req.SessionID, req.Quantity, s.reservationTTL)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordHoldFailure(ctx, req.TicketTypeID, "insufficient")
		return nil, err
	}

	metrics.RecordHold(ctx, req.TicketTypeID, req.Quantity)
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.String("reservation_id", res.ID))
	return dto.ReservationFromDomain(res), nil
}

// Release frees a reservation before it expires
func (s *reservationService) Release(ctx context.Context, reservationID string) (*dto.ReleaseResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.release")
	defer span.End()

	if reservationID == "" {
		span.SetStatus(codes.Error, "reservation not found")
		return nil, domain.ErrReservationNotFound
	}

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	released, err := s.inventoryRepo.Release(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if released {
		metrics.RecordRelease(ctx, "")
	}

	span.SetStatus(codes.Ok, "")
	return &dto.ReleaseResponse{ReservationID: reservationID, Released: released}, nil
}

// GetReservation retrieves a reservation by ID
func (s *reservationService) GetReservation(ctx context.Context, reservationID string) (*dto.HoldResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.get")
	defer span.End()

	if reservationID == "" {
		span.SetStatus(codes.Error, "reservation not found")
		return nil, domain.ErrReservationNotFound
	}

	res, err := s.inventoryRepo.GetReservation(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.ReservationFromDomain(res), nil
}

// ListActive returns the live holds on a ticket type
func (s *reservationService) ListActive(ctx context.Context, ticketTypeID string) ([]*dto.HoldResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.list_active")
	defer span.End()

	if ticketTypeID == "" {
		span.SetStatus(codes.Error, "invalid ticket type")
		return nil, domain.ErrInvalidTicketType
	}

	span.SetAttributes(attribute.String("ticket_type_id", ticketTypeID))

	reservations, err := s.inventoryRepo.ListActiveReservations(ctx, ticketTypeID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]*dto.HoldResponse, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, dto.ReservationFromDomain(res))
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}

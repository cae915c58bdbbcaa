package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
	"github.com/prohmpiriya/entrygate/internal/repository"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

// InventoryService defines catalog and availability operations
type InventoryService interface {
	// CreateTicketType registers a new ticket type for an event
	CreateTicketType(ctx context.Context, req *dto.CreateTicketTypeRequest) (*dto.TicketTypeResponse, error)

	// GetTicketType retrieves a single ticket type
	GetTicketType(ctx context.Context, id string) (*dto.TicketTypeResponse, error)

	// ListTicketTypes retrieves all ticket types for an event
	ListTicketTypes(ctx context.Context, eventID string) ([]*dto.TicketTypeResponse, error)

	// GetAvailability computes live availability for a ticket type
	GetAvailability(ctx context.Context, ticketTypeID string) (*dto.AvailabilityResponse, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
}

// NewInventoryService creates a new inventory service
func NewInventoryService(inventoryRepo repository.InventoryRepository) InventoryService {
	return &inventoryService{inventoryRepo: inventoryRepo}
}

// CreateTicketType registers a new ticket type for an event
func (s *inventoryService) CreateTicketType(ctx context.Context, req *dto.CreateTicketTypeRequest) (*dto.TicketTypeResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.create_ticket_type")
	defer span.End()

	if req == nil || req.EventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if req.Name == "" || req.TotalQuantity <= 0 || req.MaxPerPerson < 0 {
		span.SetStatus(codes.Error, "invalid ticket type")
		return nil, domain.ErrInvalidTicketType
	}
	if req.SaleStartsAt != nil && req.SaleEndsAt != nil && !req.SaleStartsAt.Before(*req.SaleEndsAt) {
		span.SetStatus(codes.Error, "invalid sale window")
		return nil, domain.ErrInvalidTicketType
	}

	now := time.Now()
	tt := &domain.TicketType{
		ID:            uuid.New().String(),
		EventID:       req.EventID,
		Name:          req.Name,
		UnitPrice:     req.UnitPrice,
		TotalQuantity: req.TotalQuantity,
		MaxPerPerson:  req.MaxPerPerson,
		SaleStartsAt:  req.SaleStartsAt,
		SaleEndsAt:    req.SaleEndsAt,
		EntryClosesAt: req.EntryClosesAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	span.SetAttributes(
		attribute.String("ticket_type_id", tt.ID),
		attribute.String("event_id", tt.EventID),
		attribute.Int("total_quantity", tt.TotalQuantity),
	)

	if err := s.inventoryRepo.CreateTicketType(ctx, tt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.TicketTypeFromDomain(tt), nil
}

// GetTicketType retrieves a single ticket type
func (s *inventoryService) GetTicketType(ctx context.Context, id string) (*dto.TicketTypeResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.get_ticket_type")
	defer span.End()

	if id == "" {
		span.SetStatus(codes.Error, "invalid ticket type")
		return nil, domain.ErrInvalidTicketType
	}

	tt, err := s.inventoryRepo.GetTicketType(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.TicketTypeFromDomain(tt), nil
}

// ListTicketTypes retrieves all ticket types for an event
func (s *inventoryService) ListTicketTypes(ctx context.Context, eventID string) ([]*dto.TicketTypeResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.list_ticket_types")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}

	list, err := s.inventoryRepo.ListTicketTypes(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]*dto.TicketTypeResponse, 0, len(list))
	for _, tt := range list {
		out = append(out, dto.TicketTypeFromDomain(tt))
	}

	span.SetStatus(codes.Ok, "")
	return out, nil
}

// GetAvailability computes live availability for a ticket type
func (s *inventoryService) GetAvailability(ctx context.Context, ticketTypeID string) (*dto.AvailabilityResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.get_availability")
	defer span.End()

	if ticketTypeID == "" {
		span.SetStatus(codes.Error, "invalid ticket type")
		return nil, domain.ErrInvalidTicketType
	}

	avail, err := s.inventoryRepo.GetAvailability(ctx, ticketTypeID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Int("available", avail.Available))
	return dto.AvailabilityFromDomain(avail), nil
}

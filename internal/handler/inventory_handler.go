package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
	"github.com/prohmpiriya/entrygate/internal/service"
	"github.com/prohmpiriya/entrygate/pkg/response"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

// InventoryHandler handles ticket type HTTP requests
type InventoryHandler struct {
	inventoryService service.InventoryService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// CreateTicketType handles POST /ticket-types
func (h *InventoryHandler) CreateTicketType(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.inventory.create_ticket_type")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("name", req.Name),
		attribute.Int("total_quantity", req.TotalQuantity),
	)

	result, err := h.inventoryService.CreateTicketType(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("ticket_type_id", result.ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// GetTicketType handles GET /ticket-types/:id
func (h *InventoryHandler) GetTicketType(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.inventory.get_ticket_type")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	if id == "" {
		span.SetStatus(codes.Error, "ticket type id required")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "ticket type id required", "")
		return
	}

	span.SetAttributes(attribute.String("ticket_type_id", id))

	result, err := h.inventoryService.GetTicketType(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// ListTicketTypes handles GET /events/:event_id/ticket-types
func (h *InventoryHandler) ListTicketTypes(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.inventory.list_ticket_types")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")
	if eventID == "" {
		span.SetStatus(codes.Error, "event id required")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "event id required", "")
		return
	}

	span.SetAttributes(attribute.String("event_id", eventID))

	result, err := h.inventoryService.ListTicketTypes(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("count", len(result)))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// GetAvailability handles GET /ticket-types/:id/availability
// Availability counts only live holds, so an expired hold frees its units
// here before the sweeper removes the row.
func (h *InventoryHandler) GetAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.inventory.availability")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	if id == "" {
		span.SetStatus(codes.Error, "ticket type id required")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "ticket type id required", "")
		return
	}

	span.SetAttributes(attribute.String("ticket_type_id", id))

	result, err := h.inventoryService.GetAvailability(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("available", result.Available))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// handleError converts domain errors to HTTP responses
func (h *InventoryHandler) handleError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFoundError(err):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error(), "")
	case domain.IsValidationError(err):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "")
	case errors.Is(err, domain.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "store temporarily unavailable", "")
	default:
		response.InternalError(c, err)
	}
}

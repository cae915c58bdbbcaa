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

// CheckoutHandler handles the hold/issue checkout flow
type CheckoutHandler struct {
	reservationService service.ReservationService
	issuanceService    service.IssuanceService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(reservationService service.ReservationService, issuanceService service.IssuanceService) *CheckoutHandler {
	return &CheckoutHandler{
		reservationService: reservationService,
		issuanceService:    issuanceService,
	}
}

// Hold handles POST /checkout/holds
// Places a timed hold on inventory. The hold expires on its own unless
// issued or released.
func (h *CheckoutHandler) Hold(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.checkout.hold")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("ticket_type_id", req.TicketTypeID),
		attribute.String("session_id", req.SessionID),
		attribute.Int("quantity", req.Quantity),
	)

	result, err := h.reservationService.Hold(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("reservation_id", result.ReservationID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// GetHold handles GET /checkout/holds/:id
func (h *CheckoutHandler) GetHold(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.checkout.get_hold")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	reservationID := c.Param("id")
	if reservationID == "" {
		span.SetStatus(codes.Error, "reservation id required")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "reservation id required", "")
		return
	}

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	result, err := h.reservationService.GetReservation(ctx, reservationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// Release handles DELETE /checkout/holds/:id
// Releasing a hold that no longer exists reports released=false rather
// than an error.
func (h *CheckoutHandler) Release(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.checkout.release")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	reservationID := c.Param("id")
	if reservationID == "" {
		span.SetStatus(codes.Error, "reservation id required")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "reservation id required", "")
		return
	}

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	result, err := h.reservationService.Release(ctx, reservationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Bool("released", result.Released))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// ListHolds handles GET /ticket-types/:id/holds
// Lists the live holds on a ticket type for operator dashboards.
func (h *CheckoutHandler) ListHolds(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.checkout.list_holds")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	ticketTypeID := c.Param("id")
	if ticketTypeID == "" {
		span.SetStatus(codes.Error, "ticket type id required")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "ticket type id required", "")
		return
	}

	span.SetAttributes(attribute.String("ticket_type_id", ticketTypeID))

	result, err := h.reservationService.ListActive(ctx, ticketTypeID)
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

// Issue handles POST /checkout/holds/:id/issue
// Converts a live hold into issued tickets, one per held unit.
func (h *CheckoutHandler) Issue(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.checkout.issue")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	reservationID := c.Param("id")
	if reservationID == "" {
		span.SetStatus(codes.Error, "reservation id required")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "reservation id required", "")
		return
	}

	var req dto.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("reservation_id", reservationID),
		attribute.String("holder_name", req.Holder.Name),
	)

	result, err := h.issuanceService.Issue(ctx, reservationID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("ticket_count", len(result.Tickets)))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// handleError converts domain errors to HTTP responses
func (h *CheckoutHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrReservationExpired):
		response.Error(c, http.StatusGone, "RESERVATION_EXPIRED", err.Error(), "")
	case errors.Is(err, domain.ErrInsufficientInventory):
		response.Error(c, http.StatusConflict, "INSUFFICIENT_INVENTORY", err.Error(), "")
	case errors.Is(err, domain.ErrCapacityExceeded):
		response.Error(c, http.StatusConflict, "CAPACITY_EXCEEDED", err.Error(), "")
	case errors.Is(err, domain.ErrSaleWindowClosed):
		response.Error(c, http.StatusConflict, "SALE_WINDOW_CLOSED", err.Error(), "")
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

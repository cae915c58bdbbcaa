package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
	"github.com/prohmpiriya/entrygate/internal/service"
	"github.com/prohmpiriya/entrygate/internal/worker"
	"github.com/prohmpiriya/entrygate/pkg/response"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

// AdminHandler handles operator HTTP requests
type AdminHandler struct {
	adminService service.AdminService
	sweeper      *worker.Sweeper
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService service.AdminService, sweeper *worker.Sweeper) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		sweeper:      sweeper,
	}
}

// RefundTicket handles POST /admin/tickets/:id/refund
func (h *AdminHandler) RefundTicket(c *gin.Context) {
	h.transition(c, "handler.admin.refund", h.adminService.Refund)
}

// CancelTicket handles POST /admin/tickets/:id/cancel
func (h *AdminHandler) CancelTicket(c *gin.Context) {
	h.transition(c, "handler.admin.cancel", h.adminService.Cancel)
}

// Sweep handles POST /admin/sweep
// Triggers one sweep of expired reservations outside the regular interval.
func (h *AdminHandler) Sweep(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.sweep")
	defer span.End()

	if h.sweeper == nil {
		span.SetStatus(codes.Error, "sweeper not configured")
		response.Error(c, http.StatusServiceUnavailable, "SWEEPER_UNAVAILABLE", "sweeper not configured", "")
		return
	}

	h.sweeper.Sweep(ctx)

	span.SetStatus(codes.Ok, "")
	response.Success(c, h.sweeper.GetStats())
}

// SweeperStats handles GET /admin/sweeper/stats
func (h *AdminHandler) SweeperStats(c *gin.Context) {
	if h.sweeper == nil {
		response.Error(c, http.StatusServiceUnavailable, "SWEEPER_UNAVAILABLE", "sweeper not configured", "")
		return
	}
	response.Success(c, h.sweeper.GetStats())
}

// transition runs one admin ticket transition and renders the result
func (h *AdminHandler) transition(c *gin.Context, spanName string, fn func(ctx context.Context, ticketID string) (*dto.TransitionResponse, error)) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), spanName)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	ticketID := c.Param("id")
	if ticketID == "" {
		span.SetStatus(codes.Error, "ticket id required")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "ticket id required", "")
		return
	}

	span.SetAttributes(attribute.String("ticket_id", ticketID))

	result, err := fn(ctx, ticketID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("status", result.Status))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// handleError converts domain errors to HTTP responses
func (h *AdminHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error(), "")
	case errors.Is(err, domain.ErrCapacityExceeded):
		response.Error(c, http.StatusConflict, "CAPACITY_EXCEEDED", err.Error(), "")
	case domain.IsNotFoundError(err):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error(), "")
	case errors.Is(err, domain.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "store temporarily unavailable", "")
	default:
		response.InternalError(c, err)
	}
}

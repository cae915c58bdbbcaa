package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
	"github.com/prohmpiriya/entrygate/internal/service"
	"github.com/prohmpiriya/entrygate/pkg/response"
	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

// EntryHandler handles gate scanning HTTP requests.
// A resolved scan is never an HTTP error: rejected tickets come back 200
// with the verdict in the body so the gate device renders it directly.
type EntryHandler struct {
	entryService service.EntryService
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(entryService service.EntryService) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// Scan handles POST /entry/scan
func (h *EntryHandler) Scan(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.entry.scan")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("scanner_id", req.ScannerID),
	)

	result, err := h.entryService.Scan(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("outcome", result.Outcome),
		attribute.Bool("admitted", result.Admitted),
	)
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// Validate handles POST /entry/validate
// Dry-run scan: same verdict, the ticket stays untouched.
func (h *EntryHandler) Validate(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.entry.validate")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("scanner_id", req.ScannerID),
	)

	result, err := h.entryService.Validate(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("outcome", result.Outcome))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// GetStats handles GET /entry/stats
func (h *EntryHandler) GetStats(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.entry.stats")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Query("event_id")
	if eventID == "" {
		span.SetStatus(codes.Error, "event_id required")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "event_id query parameter required", "")
		return
	}
	scannerID := c.Query("scanner_id")

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("scanner_id", scannerID),
	)

	result, err := h.entryService.GetStats(ctx, eventID, scannerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// ListRecent handles GET /entry/recent
func (h *EntryHandler) ListRecent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.entry.recent")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Query("event_id")
	if eventID == "" {
		span.SetStatus(codes.Error, "event_id required")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "event_id query parameter required", "")
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("limit", limit),
	)

	result, err := h.entryService.ListRecent(ctx, eventID, limit)
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

// handleError converts domain errors to HTTP responses
func (h *EntryHandler) handleError(c *gin.Context, err error) {
	switch {
	case domain.IsValidationError(err):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "")
	case domain.IsNotFoundError(err):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error(), "")
	case errors.Is(err, domain.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "store temporarily unavailable", "")
	default:
		response.InternalError(c, err)
	}
}

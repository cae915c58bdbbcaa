package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
)

func setupAdminRouter(adminService *MockAdminService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAdminHandler(adminService, nil)

	router := gin.New()
	admin := router.Group("/admin")
	{
		admin.POST("/tickets/:id/refund", h.RefundTicket)
		admin.POST("/tickets/:id/cancel", h.CancelTicket)
		admin.GET("/sweeper/stats", h.SweeperStats)
	}
	return router
}

func TestRefundEndpoint(t *testing.T) {
	adminService := &MockAdminService{
		RefundFunc: func(ctx context.Context, ticketID string) (*dto.TransitionResponse, error) {
			return &dto.TransitionResponse{TicketID: ticketID, Status: "refunded"}, nil
		},
	}
	router := setupAdminRouter(adminService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/tickets/ticket-1/refund", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCancelEndpointInvalidTransition(t *testing.T) {
	adminService := &MockAdminService{
		CancelFunc: func(ctx context.Context, ticketID string) (*dto.TransitionResponse, error) {
			return nil, domain.ErrInvalidTransition
		},
	}
	router := setupAdminRouter(adminService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/tickets/ticket-1/cancel", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.Error == nil || resp.Error.Code != "INVALID_TRANSITION" {
		t.Errorf("expected INVALID_TRANSITION error, got %s", w.Body.String())
	}
}

func TestRefundEndpointNotFound(t *testing.T) {
	adminService := &MockAdminService{
		RefundFunc: func(ctx context.Context, ticketID string) (*dto.TransitionResponse, error) {
			return nil, domain.ErrTicketNotFound
		},
	}
	router := setupAdminRouter(adminService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/tickets/missing/refund", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSweeperStatsUnconfigured(t *testing.T) {
	router := setupAdminRouter(&MockAdminService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/sweeper/stats", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without sweeper, got %d", w.Code)
	}
}

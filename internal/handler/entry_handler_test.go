package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
)

func setupEntryRouter(entryService *MockEntryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewEntryHandler(entryService)

	router := gin.New()
	entry := router.Group("/entry")
	{
		entry.POST("/scan", h.Scan)
		entry.POST("/validate", h.Validate)
		entry.GET("/stats", h.GetStats)
		entry.GET("/recent", h.ListRecent)
	}
	return router
}

func postScan(router *gin.Engine, path string, req *dto.ScanRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(req)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, r)
	return w
}

func TestScanEndpointAdmitted(t *testing.T) {
	entryService := &MockEntryService{
		ScanFunc: func(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error) {
			return &dto.ScanResponse{
				Outcome:   string(domain.ScanOutcomeAdmitted),
				Admitted:  true,
				Ticket:    &dto.TicketResponse{ID: "ticket-1", Status: "used"},
				ScannedAt: time.Now(),
			}, nil
		},
	}
	router := setupEntryRouter(entryService)

	w := postScan(router, "/entry/scan", &dto.ScanRequest{
		EventID: "event-1", ScannerID: "gate-1", Code: "AB2CD3E",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	if !resp.Success {
		t.Errorf("expected success envelope, got %s", w.Body.String())
	}
}

func TestScanEndpointRejectedStill200(t *testing.T) {
	entryService := &MockEntryService{
		ScanFunc: func(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error) {
			return &dto.ScanResponse{
				Outcome:   string(domain.ScanOutcomeAlreadyUsed),
				Admitted:  false,
				ScannedAt: time.Now(),
			}, nil
		},
	}
	router := setupEntryRouter(entryService)

	w := postScan(router, "/entry/scan", &dto.ScanRequest{
		EventID: "event-1", ScannerID: "gate-1", Code: "AB2CD3E",
	})

	// The verdict is in the body, not the status code
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for rejected scan, got %d", w.Code)
	}
}

func TestScanEndpointMissingFields(t *testing.T) {
	router := setupEntryRouter(&MockEntryService{})

	w := postScan(router, "/entry/scan", &dto.ScanRequest{Code: "AB2CD3E"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	validated := false
	entryService := &MockEntryService{
		ValidateFunc: func(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error) {
			validated = true
			return &dto.ScanResponse{
				Outcome:   string(domain.ScanOutcomeAdmitted),
				Admitted:  true,
				ScannedAt: time.Now(),
			}, nil
		},
	}
	router := setupEntryRouter(entryService)

	w := postScan(router, "/entry/validate", &dto.ScanRequest{
		EventID: "event-1", ScannerID: "gate-1", Code: "AB2CD3E",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !validated {
		t.Error("expected Validate to be called")
	}
}

func TestStatsEndpointRequiresEventID(t *testing.T) {
	router := setupEntryRouter(&MockEntryService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/entry/stats", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without event_id, got %d", w.Code)
	}
}

func TestRecentEndpointClampsLimit(t *testing.T) {
	var gotLimit int
	entryService := &MockEntryService{
		ListRecentFunc: func(ctx context.Context, eventID string, limit int) ([]*dto.ScanRecordResponse, error) {
			gotLimit = limit
			return []*dto.ScanRecordResponse{}, nil
		},
	}
	router := setupEntryRouter(entryService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/entry/recent?event_id=event-1&limit=9999", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotLimit != 50 {
		t.Errorf("out-of-range limit must fall back to default, got %d", gotLimit)
	}
}

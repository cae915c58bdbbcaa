package dto

import (
	"time"

	"github.com/prohmpiriya/entrygate/internal/domain"
)

// ScanRequest represents a scan attempt at the door
type ScanRequest struct {
	EventID   string `json:"event_id" binding:"required"`
	ScannerID string `json:"scanner_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

// ScanResponse represents the verdict for a scan attempt
type ScanResponse struct {
	Outcome   string          `json:"outcome"`
	Admitted  bool            `json:"admitted"`
	Ticket    *TicketResponse `json:"ticket,omitempty"`
	ScannedAt time.Time       `json:"scanned_at"`
}

// ScanRecordResponse represents a single audit entry
type ScanRecordResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id,omitempty"`
	EventID   string    `json:"event_id"`
	ScannerID string    `json:"scanner_id"`
	Method    string    `json:"method"`
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}

// ScanStatsResponse represents per-scanner aggregate counts
type ScanStatsResponse struct {
	ScannerID       string     `json:"scanner_id"`
	EventID         string     `json:"event_id"`
	TotalScans      int64      `json:"total_scans"`
	SuccessfulScans int64      `json:"successful_scans"`
	FailedScans     int64      `json:"failed_scans"`
	LastScanAt      *time.Time `json:"last_scan_at,omitempty"`
}

// ScanRecordFromDomain converts a domain ScanRecord to its API response
func ScanRecordFromDomain(r *domain.ScanRecord) *ScanRecordResponse {
	resp := &ScanRecordResponse{
		ID:        r.ID,
		EventID:   r.EventID,
		ScannerID: r.ScannerID,
		Method:    string(r.Method),
		Outcome:   string(r.Outcome),
		Timestamp: r.Timestamp,
	}
	if r.TicketID != nil {
		resp.TicketID = *r.TicketID
	}
	return resp
}

// ScanStatsFromDomain converts domain ScanStats to its API response
func ScanStatsFromDomain(s *domain.ScanStats) *ScanStatsResponse {
	return &ScanStatsResponse{
		ScannerID:       s.ScannerID,
		EventID:         s.EventID,
		TotalScans:      s.TotalScans,
		SuccessfulScans: s.SuccessfulScans,
		FailedScans:     s.FailedScans,
		LastScanAt:      s.LastScanAt,
	}
}

package dto

import (
	"time"

	"github.com/prohmpiriya/entrygate/internal/domain"
)

// HoldRequest represents request to place a timed hold on inventory
type HoldRequest struct {
	TicketTypeID string `json:"ticket_type_id" binding:"required"`
	SessionID    string `json:"session_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
}

// HoldResponse represents response after placing a hold
type HoldResponse struct {
	ReservationID string    `json:"reservation_id"`
	TicketTypeID  string    `json:"ticket_type_id"`
	Quantity      int       `json:"quantity"`
	ReservedAt    time.Time `json:"reserved_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// ReleaseResponse represents response after releasing a hold
type ReleaseResponse struct {
	ReservationID string `json:"reservation_id"`
	Released      bool   `json:"released"`
}

// HolderRequest carries attendee details for ticket issuance
type HolderRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// IssueRequest represents request to convert a hold into tickets
type IssueRequest struct {
	Holder HolderRequest `json:"holder" binding:"required"`
}

// TicketResponse represents an issued ticket in API response
type TicketResponse struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	TicketTypeID string     `json:"ticket_type_id"`
	HolderName   string     `json:"holder_name"`
	HolderEmail  string     `json:"holder_email,omitempty"`
	HolderPhone  string     `json:"holder_phone,omitempty"`
	ScanCode     string     `json:"scan_code"`
	BackupCode   string     `json:"backup_code"`
	Status       string     `json:"status"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	CheckedInBy  string     `json:"checked_in_by,omitempty"`
	IssuedAt     time.Time  `json:"issued_at"`
}

// IssueResponse represents response after issuing tickets
type IssueResponse struct {
	ReservationID string            `json:"reservation_id"`
	Tickets       []*TicketResponse `json:"tickets"`
}

// ReservationFromDomain converts a domain Reservation to a HoldResponse
func ReservationFromDomain(r *domain.Reservation) *HoldResponse {
	return &HoldResponse{
		ReservationID: r.ID,
		TicketTypeID:  r.TicketTypeID,
		Quantity:      r.Quantity,
		ReservedAt:    r.ReservedAt,
		ExpiresAt:     r.ExpiresAt,
	}
}

// TicketFromDomain converts a domain Ticket to its API response
func TicketFromDomain(t *domain.Ticket) *TicketResponse {
	return &TicketResponse{
		ID:           t.ID,
		EventID:      t.EventID,
		TicketTypeID: t.TicketTypeID,
		HolderName:   t.Holder.Name,
		HolderEmail:  t.Holder.Email,
		HolderPhone:  t.Holder.Phone,
		ScanCode:     t.ScanCode,
		BackupCode:   t.BackupCode,
		Status:       t.Status.String(),
		CheckedInAt:  t.CheckedInAt,
		CheckedInBy:  t.CheckedInBy,
		IssuedAt:     t.IssuedAt,
	}
}

// TicketsFromDomain converts a slice of domain Tickets
func TicketsFromDomain(tickets []*domain.Ticket) []*TicketResponse {
	out := make([]*TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, TicketFromDomain(t))
	}
	return out
}

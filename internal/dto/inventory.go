package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/prohmpiriya/entrygate/internal/domain"
)

// CreateTicketTypeRequest represents request to create a ticket type
type CreateTicketTypeRequest struct {
	EventID       string          `json:"event_id" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalQuantity int             `json:"total_quantity" binding:"required,min=1"`
	MaxPerPerson  int             `json:"max_per_person,omitempty"`
	SaleStartsAt  *time.Time      `json:"sale_starts_at,omitempty"`
	SaleEndsAt    *time.Time      `json:"sale_ends_at,omitempty"`
	EntryClosesAt *time.Time      `json:"entry_closes_at,omitempty"`
}

// TicketTypeResponse represents a ticket type in API response
type TicketTypeResponse struct {
	ID            string          `json:"id"`
	EventID       string          `json:"event_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalQuantity int             `json:"total_quantity"`
	SoldQuantity  int             `json:"sold_quantity"`
	MaxPerPerson  int             `json:"max_per_person,omitempty"`
	SaleStartsAt  *time.Time      `json:"sale_starts_at,omitempty"`
	SaleEndsAt    *time.Time      `json:"sale_ends_at,omitempty"`
	EntryClosesAt *time.Time      `json:"entry_closes_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AvailabilityResponse represents live availability of a ticket type
type AvailabilityResponse struct {
	TicketTypeID string `json:"ticket_type_id"`
	Available    int    `json:"available"`
	Sold         int    `json:"sold"`
	Held         int    `json:"held"`
	Total        int    `json:"total"`
}

// TicketTypeFromDomain converts a domain TicketType to its API response
func TicketTypeFromDomain(tt *domain.TicketType) *TicketTypeResponse {
	return &TicketTypeResponse{
		ID:            tt.ID,
		EventID:       tt.EventID,
		Name:          tt.Name,
		UnitPrice:     tt.UnitPrice,
		TotalQuantity: tt.TotalQuantity,
		SoldQuantity:  tt.SoldQuantity,
		MaxPerPerson:  tt.MaxPerPerson,
		SaleStartsAt:  tt.SaleStartsAt,
		SaleEndsAt:    tt.SaleEndsAt,
		EntryClosesAt: tt.EntryClosesAt,
		CreatedAt:     tt.CreatedAt,
	}
}

// AvailabilityFromDomain converts a domain Availability to its API response
func AvailabilityFromDomain(a *domain.Availability) *AvailabilityResponse {
	return &AvailabilityResponse{
		TicketTypeID: a.TicketTypeID,
		Available:    a.Available,
		Sold:         a.Sold,
		Held:         a.Held,
		Total:        a.Total,
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketType is the unit of inventory for one event: a named allotment with a
// fixed total capacity and a running sold count. SoldQuantity is mutated only
// by ticket issuance and administrative refund corrections.
type TicketType struct {
	ID            string          `json:"id"`
	EventID       string          `json:"event_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalQuantity int             `json:"total_quantity"`
	SoldQuantity  int             `json:"sold_quantity"`

	// MaxPerPerson caps the quantity of a single hold. Zero means no cap.
	MaxPerPerson int `json:"max_per_person"`

	// Optional sale window. Nil bounds are open.
	SaleStartsAt *time.Time `json:"sale_starts_at,omitempty"`
	SaleEndsAt   *time.Time `json:"sale_ends_at,omitempty"`

	// EntryClosesAt is the end of the event-entry window. Scans after this
	// instant resolve to the expired_window outcome. Nil means entry never
	// closes.
	EntryClosesAt *time.Time `json:"entry_closes_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OnSaleAt reports whether the sale window is open at the given instant.
func (t *TicketType) OnSaleAt(now time.Time) bool {
	if t.SaleStartsAt != nil && now.Before(*t.SaleStartsAt) {
		return false
	}
	if t.SaleEndsAt != nil && now.After(*t.SaleEndsAt) {
		return false
	}
	return true
}

// EntryOpenAt reports whether the entry window is still open at the given instant.
func (t *TicketType) EntryOpenAt(now time.Time) bool {
	return t.EntryClosesAt == nil || !now.After(*t.EntryClosesAt)
}

// Availability is the on-demand inventory view for one ticket type.
// Available = Total - Sold - Held, where Held counts only non-expired
// reservations. It is computed fresh on every read, never cached.
type Availability struct {
	TicketTypeID string `json:"ticket_type_id"`
	Available    int    `json:"available"`
	Sold         int    `json:"sold"`
	Total        int    `json:"total"`
	Held         int    `json:"held"`
}

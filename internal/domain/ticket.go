package domain

import "time"

// TicketStatus represents the lifecycle state of an issued ticket
type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "active"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusRefunded  TicketStatus = "refunded"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// String returns the string representation of the status
func (s TicketStatus) String() string { return string(s) }

// IsTerminal reports whether the status admits no further transitions.
// active→used happens only through entry validation; refunded and cancelled
// are reachable only administratively.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusUsed || s == TicketStatusRefunded || s == TicketStatusCancelled
}

// Holder carries the contact fields persisted on each issued ticket.
type Holder struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Ticket is the durable record produced by issuance. Tickets are never
// deleted; refunds and cancellations are status transitions so that the scan
// audit trail stays resolvable.
type Ticket struct {
	ID           string `json:"id"`
	EventID      string `json:"event_id"`
	TicketTypeID string `json:"ticket_type_id"`
	Holder       Holder `json:"holder"`

	// ScanCode is the opaque signed payload embedded in the scannable code.
	ScanCode string `json:"scan_code"`
	// BackupCode is the 7-character human-typable fallback, unique per event.
	BackupCode string `json:"backup_code"`

	Status      TicketStatus `json:"status"`
	CheckedInAt *time.Time   `json:"checked_in_at,omitempty"`
	CheckedInBy string       `json:"checked_in_by,omitempty"`

	IssuedAt  time.Time `json:"issued_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the ticket can still be admitted.
func (t *Ticket) IsActive() bool { return t.Status == TicketStatusActive }

package domain

import "time"

// TicketEventType identifies a stream event
type TicketEventType string

const (
	TicketEventIssued TicketEventType = "ticket.issued"
	TicketEventEntry  TicketEventType = "entry.admitted"
	TicketEventSwept  TicketEventType = "reservations.swept"
	TicketEventRefund TicketEventType = "ticket.refunded"
	TicketEventCancel TicketEventType = "ticket.cancelled"
)

// TicketEvent is the envelope published to the event stream. Key groups
// records by the venue event so consumers see per-event ordering.
type TicketEvent struct {
	ID         string          `json:"id"`
	Type       TicketEventType `json:"type"`
	EventID    string          `json:"event_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    interface{}     `json:"payload"`
}

// Key returns the partition key for the event
func (e *TicketEvent) Key() string {
	return e.EventID
}

// TicketsIssuedPayload describes tickets minted from a reservation
type TicketsIssuedPayload struct {
	ReservationID string   `json:"reservation_id"`
	TicketTypeID  string   `json:"ticket_type_id"`
	TicketIDs     []string `json:"ticket_ids"`
	Quantity      int      `json:"quantity"`
}

// EntryAdmittedPayload describes a successful door admission
type EntryAdmittedPayload struct {
	TicketID  string    `json:"ticket_id"`
	ScannerID string    `json:"scanner_id"`
	Method    string    `json:"method"`
	At        time.Time `json:"at"`
}

// ReservationsSweptPayload describes one sweeper pass
type ReservationsSweptPayload struct {
	Count int64     `json:"count"`
	At    time.Time `json:"at"`
}

// TicketTransitionPayload describes an admin status change
type TicketTransitionPayload struct {
	TicketID string `json:"ticket_id"`
	Status   string `json:"status"`
}

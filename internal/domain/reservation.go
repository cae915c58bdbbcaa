package domain

import "time"

// Reservation is a time-limited hold on inventory taken during checkout. It is
// keyed to a checkout session, not a user account, and is destroyed by exactly
// one of: explicit release, promotion into tickets, or sweeper expiry.
//
// An expired reservation is treated as already released by every availability
// read, whether or not the sweeper has physically deleted the row. The single
// authoritative predicate is expires_at > now, applied identically by reads,
// promotion and the sweeper.
type Reservation struct {
	ID           string    `json:"id"`
	TicketTypeID string    `json:"ticket_type_id"`
	SessionID    string    `json:"session_id"`
	Quantity     int       `json:"quantity"`
	ReservedAt   time.Time `json:"reserved_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired reports whether the hold is past its TTL at the given instant.
func (r *Reservation) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// DefaultReservationTTL is used when no TTL is configured.
const DefaultReservationTTL = 15 * time.Minute

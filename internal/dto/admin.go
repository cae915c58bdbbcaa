package dto

// TransitionRequest represents an admin status change on a ticket
type TransitionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// TransitionResponse represents the ticket state after an admin transition
type TransitionResponse struct {
	TicketID string `json:"ticket_id"`
	Status   string `json:"status"`
}

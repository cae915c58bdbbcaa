package ticketcode

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/prohmpiriya/entrygate/internal/domain"
)

// Scan codes are versioned, dot-separated payloads:
//
//	ET1.<event_id>.<ticket_id>.<signature>
//
// The signature is HMAC-SHA256 over "<event_id>|<ticket_id>" with a
// server-held key, base64url encoded. A door scanner can therefore reject a
// forged or tampered payload before any database lookup; the embedded ticket
// id is trusted only after the signature verifies.
const scanCodeVersion = "ET1"

// Signer encodes and verifies scan-code payloads with one signing key.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer. The key must be non-empty; key rotation is an
// operational concern handled by re-issuing codes.
func NewSigner(key []byte) *Signer {
	return &Signer{key: key}
}

// Payload is the decoded content of a verified scan code.
type Payload struct {
	EventID  string
	TicketID string
}

// Encode builds the signed scan-code string for a ticket.
func (s *Signer) Encode(eventID, ticketID string) string {
	sig := s.sign(eventID, ticketID)
	return strings.Join([]string{scanCodeVersion, eventID, ticketID, sig}, ".")
}

// Decode parses and verifies a scan code. It returns ErrMalformedCode for
// anything that is not a structurally valid, correctly signed ET1 payload.
func (s *Signer) Decode(code string) (*Payload, error) {
	parts := strings.Split(code, ".")
	if len(parts) != 4 || parts[0] != scanCodeVersion {
		return nil, domain.ErrMalformedCode
	}
	eventID, ticketID, sig := parts[1], parts[2], parts[3]
	if eventID == "" || ticketID == "" {
		return nil, domain.ErrMalformedCode
	}
	expected := s.sign(eventID, ticketID)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, domain.ErrMalformedCode
	}
	return &Payload{EventID: eventID, TicketID: ticketID}, nil
}

func (s *Signer) sign(eventID, ticketID string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(eventID))
	mac.Write([]byte{'|'})
	mac.Write([]byte(ticketID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

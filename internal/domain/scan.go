package domain

import "time"

// ScanMethod tags how the code was supplied at the door
type ScanMethod string

const (
	ScanMethodScanCode   ScanMethod = "scan_code"
	ScanMethodBackupCode ScanMethod = "backup_code"
)

// ScanOutcome is the result of one validation attempt
type ScanOutcome string

const (
	ScanOutcomeAdmitted      ScanOutcome = "admitted"
	ScanOutcomeAlreadyUsed   ScanOutcome = "already_used"
	ScanOutcomeNotFound      ScanOutcome = "not_found"
	ScanOutcomeWrongEvent    ScanOutcome = "wrong_event"
	ScanOutcomeExpiredWindow ScanOutcome = "expired_window"
)

// Admitted reports whether the outcome admitted the holder.
func (o ScanOutcome) Admitted() bool { return o == ScanOutcomeAdmitted }

// ScanRecord is one append-only audit row per validation attempt, success or
// failure. TicketID is nil when the code did not resolve. Records are never
// mutated or deleted.
type ScanRecord struct {
	ID        string      `json:"id"`
	TicketID  *string     `json:"ticket_id,omitempty"`
	EventID   string      `json:"event_id"`
	ScannerID string      `json:"scanner_id"`
	Method    ScanMethod  `json:"method"`
	Outcome   ScanOutcome `json:"outcome"`
	Timestamp time.Time   `json:"timestamp"`
}

// ScanStats aggregates a scanner's attempts for one event.
type ScanStats struct {
	ScannerID       string     `json:"scanner_id"`
	EventID         string     `json:"event_id"`
	TotalScans      int64      `json:"total_scans"`
	SuccessfulScans int64      `json:"successful_scans"`
	FailedScans     int64      `json:"failed_scans"`
	LastScanAt      *time.Time `json:"last_scan_at,omitempty"`
}

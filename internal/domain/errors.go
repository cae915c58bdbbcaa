package domain

import "errors"

// Domain errors
var (
	// Inventory errors
	ErrTicketTypeNotFound    = errors.New("ticket type not found")
	ErrInsufficientInventory = errors.New("insufficient inventory available")
	ErrCapacityExceeded      = errors.New("sold quantity would exceed total capacity")
	ErrSaleWindowClosed      = errors.New("ticket type is not on sale")

	// Reservation errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationExpired  = errors.New("reservation has expired")

	// Ticket errors
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrAlreadyUsed       = errors.New("ticket has already been used")
	ErrWrongEvent        = errors.New("ticket belongs to a different event")
	ErrInvalidTransition = errors.New("invalid ticket status transition")

	// Code errors
	ErrMalformedCode       = errors.New("code is malformed")
	ErrDuplicateBackupCode = errors.New("backup code already exists for event")

	// Validation errors
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidEventID    = errors.New("invalid event id")
	ErrInvalidSessionID  = errors.New("invalid session id")
	ErrInvalidScannerID  = errors.New("invalid scanner id")
	ErrInvalidTicketType = errors.New("invalid ticket type")
	ErrInvalidHolder     = errors.New("holder contact details are required")

	// ErrUnavailable marks transient store-connectivity failures. Callers may
	// safely retry the whole operation.
	ErrUnavailable = errors.New("store unavailable")
)

// Unavailable wraps a transient store error so callers can branch on it with
// errors.Is(err, ErrUnavailable) while keeping the original cause in the chain.
func Unavailable(op string, err error) error {
	return &unavailableError{op: op, err: err}
}

type unavailableError struct {
	op  string
	err error
}

func (e *unavailableError) Error() string { return e.op + ": " + e.err.Error() }

func (e *unavailableError) Unwrap() error { return e.err }

func (e *unavailableError) Is(target error) bool { return target == ErrUnavailable }

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTicketTypeNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrTicketNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidSessionID) ||
		errors.Is(err, ErrInvalidScannerID) ||
		errors.Is(err, ErrInvalidTicketType) ||
		errors.Is(err, ErrInvalidHolder) ||
		errors.Is(err, ErrMalformedCode)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInsufficientInventory) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrAlreadyUsed) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsRetryable checks if the caller may safely retry the whole operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrCapacityExceeded)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prohmpiriya/entrygate/internal/domain"
)

// storeErr wraps a store failure for the given operation. Connection-level
// failures are classified as domain.ErrUnavailable so callers can retry the
// whole operation; everything else keeps the plain wrapped form.
func storeErr(op string, err error) error {
	if isTransient(err) {
		return domain.Unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isTransient reports whether err is a connectivity failure rather than a
// statement-level one. pgconn.SafeToRetry covers errors raised before any
// data hit the wire.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

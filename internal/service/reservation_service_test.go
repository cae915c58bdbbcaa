package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
)

func activeTicketType() *domain.TicketType {
	now := time.Now()
	return &domain.TicketType{
		ID:            "tt-1",
		EventID:       "event-1",
		Name:          "General Admission",
		TotalQuantity: 100,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestHoldSuccess(t *testing.T) {
	tt := activeTicketType()
	invRepo := &MockInventoryRepository{
		GetTicketTypeFunc: func(ctx context.Context, id string) (*domain.TicketType, error) {
			return tt, nil
		},
		HoldFunc: func(ctx context.Context, ticketTypeID, sessionID string, quantity int, ttl time.Duration) (*domain.Reservation, error) {
			if ttl != 15*time.Minute {
				t.Errorf("expected 15m TTL, got %v", ttl)
			}
			now := time.Now()
			return &domain.Reservation{
				ID:           "res-1",
				TicketTypeID: ticketTypeID,
				SessionID:    sessionID,
				Quantity:     quantity,
				ReservedAt:   now,
				ExpiresAt:    now.Add(ttl),
			}, nil
		},
	}

	svc := NewReservationService(invRepo, &ReservationServiceConfig{ReservationTTL: 15 * time.Minute})

	resp, err := svc.Hold(context.Background(), &dto.HoldRequest{
		TicketTypeID: "tt-1",
		SessionID:    "session-1",
		Quantity:     2,
	})
	if err != nil {
		t.Fatalf("Hold failed: %v", err)
	}
	if resp.ReservationID != "res-1" || resp.Quantity != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHoldValidation(t *testing.T) {
	svc := NewReservationService(&MockInventoryRepository{}, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		req  *dto.HoldRequest
		want error
	}{
		{"nil request", nil, domain.ErrInvalidQuantity},
		{"zero quantity", &dto.HoldRequest{TicketTypeID: "tt-1", SessionID: "s-1"}, domain.ErrInvalidQuantity},
		{"negative quantity", &dto.HoldRequest{TicketTypeID: "tt-1", SessionID: "s-1", Quantity: -3}, domain.ErrInvalidQuantity},
		{"missing ticket type", &dto.HoldRequest{SessionID: "s-1", Quantity: 1}, domain.ErrInvalidTicketType},
		{"missing session", &dto.HoldRequest{TicketTypeID: "tt-1", Quantity: 1}, domain.ErrInvalidSessionID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Hold(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestHoldRespectsPerPersonCap(t *testing.T) {
	tt := activeTicketType()
	tt.MaxPerPerson = 4
	invRepo := &MockInventoryRepository{
		GetTicketTypeFunc: func(ctx context.Context, id string) (*domain.TicketType, error) {
			return tt, nil
		},
	}
	svc := NewReservationService(invRepo, nil)

	_, err := svc.Hold(context.Background(), &dto.HoldRequest{
		TicketTypeID: "tt-1", SessionID: "s-1", Quantity: 5,
	})
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity over cap, got %v", err)
	}
}

func TestHoldFallbackCapWhenTypeHasNone(t *testing.T) {
	tt := activeTicketType()
	invRepo := &MockInventoryRepository{
		GetTicketTypeFunc: func(ctx context.Context, id string) (*domain.TicketType, error) {
			return tt, nil
		},
	}
	svc := NewReservationService(invRepo, &ReservationServiceConfig{MaxPerPerson: 6})

	_, err := svc.Hold(context.Background(), &dto.HoldRequest{
		TicketTypeID: "tt-1", SessionID: "s-1", Quantity: 7,
	})
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity over default cap, got %v", err)
	}
}

func TestHoldOutsideSaleWindow(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	tt := activeTicketType()
	tt.SaleEndsAt = &past

	invRepo := &MockInventoryRepository{
		GetTicketTypeFunc: func(ctx context.Context, id string) (*domain.TicketType, error) {
			return tt, nil
		},
	}
	svc := NewReservationService(invRepo, nil)

	_, err := svc.Hold(context.Background(), &dto.HoldRequest{
		TicketTypeID: "tt-1", SessionID: "s-1", Quantity: 1,
	})
	if !errors.Is(err, domain.ErrSaleWindowClosed) {
		t.Fatalf("expected ErrSaleWindowClosed, got %v", err)
	}
}

func TestHoldInsufficientInventory(t *testing.T) {
	invRepo := &MockInventoryRepository{
		GetTicketTypeFunc: func(ctx context.Context, id string) (*domain.TicketType, error) {
			return activeTicketType(), nil
		},
		HoldFunc: func(ctx context.Context, ticketTypeID, sessionID string, quantity int, ttl time.Duration) (*domain.Reservation, error) {
			return nil, domain.ErrInsufficientInventory
		},
	}
	svc := NewReservationService(invRepo, nil)

	_, err := svc.Hold(context.Background(), &dto.HoldRequest{
		TicketTypeID: "tt-1", SessionID: "s-1", Quantity: 2,
	})
	if !errors.Is(err, domain.ErrInsufficientInventory) {
		t.Fatalf("expected ErrInsufficientInventory, got %v", err)
	}
}

func TestHoldStoreOutageIsRetryable(t *testing.T) {
	invRepo := &MockInventoryRepository{
		GetTicketTypeFunc: func(ctx context.Context, id string) (*domain.TicketType, error) {
			return activeTicketType(), nil
		},
		HoldFunc: func(ctx context.Context, ticketTypeID, sessionID string, quantity int, ttl time.Duration) (*domain.Reservation, error) {
			return nil, domain.Unavailable("failed to insert reservation", context.DeadlineExceeded)
		},
	}
	svc := NewReservationService(invRepo, nil)

	_, err := svc.Hold(context.Background(), &dto.HoldRequest{
		TicketTypeID: "tt-1", SessionID: "s-1", Quantity: 2,
	})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable during store outage, got %v", err)
	}
	if !domain.IsRetryable(err) {
		t.Error("a store outage during hold must be retryable")
	}
}

func TestReleaseIdempotent(t *testing.T) {
	calls := 0
	invRepo := &MockInventoryRepository{
		ReleaseFunc: func(ctx context.Context, reservationID string) (bool, error) {
			calls++
			return calls == 1, nil
		},
	}
	svc := NewReservationService(invRepo, nil)
	ctx := context.Background()

	resp, err := svc.Release(ctx, "res-1")
	if err != nil || !resp.Released {
		t.Fatalf("first release: released=%v err=%v", resp.Released, err)
	}

	resp, err = svc.Release(ctx, "res-1")
	if err != nil {
		t.Fatalf("second release errored: %v", err)
	}
	if resp.Released {
		t.Error("second release must report released=false")
	}
}

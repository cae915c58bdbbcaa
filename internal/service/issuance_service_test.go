package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
	"github.com/prohmpiriya/entrygate/internal/ticketcode"
)

func issuanceFixtures() (*domain.Reservation, *domain.TicketType) {
	now := time.Now()
	res := &domain.Reservation{
		ID:           "res-1",
		TicketTypeID: "tt-1",
		SessionID:    "session-1",
		Quantity:     2,
		ReservedAt:   now,
		ExpiresAt:    now.Add(10 * time.Minute),
	}
	tt := &domain.TicketType{
		ID:            "tt-1",
		EventID:       "event-1",
		Name:          "General Admission",
		TotalQuantity: 100,
		SoldQuantity:  10,
	}
	return res, tt
}

func TestIssueMintsOneTicketPerHeldUnit(t *testing.T) {
	res, tt := issuanceFixtures()
	signer := ticketcode.NewSigner([]byte("test-key"))

	var inserted []*domain.Ticket
	adjusted := 0

	invRepo := &MockInventoryRepository{
		GetReservationFunc: func(ctx context.Context, id string) (*domain.Reservation, error) { return res, nil },
		GetTicketTypeFunc:  func(ctx context.Context, id string) (*domain.TicketType, error) { return tt, nil },
		PromoteTxFunc: func(ctx context.Context, tx pgx.Tx, reservationID string) (*domain.Reservation, error) {
			return res, nil
		},
		AdjustSoldTxFunc: func(ctx context.Context, tx pgx.Tx, ticketTypeID string, delta int) error {
			adjusted += delta
			return nil
		},
	}
	ticketRepo := &MockTicketRepository{
		InsertTxFunc: func(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
			inserted = append(inserted, ticket)
			return nil
		},
	}
	publisher := &MockEventPublisher{}

	svc := NewIssuanceService(&MockTxManager{}, invRepo, ticketRepo, signer, publisher)

	resp, err := svc.Issue(context.Background(), "res-1", &dto.IssueRequest{
		Holder: dto.HolderRequest{Name: "Alex Doe", Email: "alex@example.com"},
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if len(resp.Tickets) != 2 || len(inserted) != 2 {
		t.Fatalf("expected 2 tickets, got %d response / %d inserted", len(resp.Tickets), len(inserted))
	}
	if adjusted != 2 {
		t.Errorf("expected sold_quantity moved by 2, got %d", adjusted)
	}

	for _, ticket := range inserted {
		if ticket.Status != domain.TicketStatusActive {
			t.Errorf("expected active ticket, got %s", ticket.Status)
		}
		payload, derr := signer.Decode(ticket.ScanCode)
		if derr != nil {
			t.Fatalf("minted scan code does not verify: %v", derr)
		}
		if payload.EventID != "event-1" || payload.TicketID != ticket.ID {
			t.Errorf("scan code payload mismatch: %+v", payload)
		}
		if len(ticket.BackupCode) != ticketcode.BackupCodeLength {
			t.Errorf("unexpected backup code %q", ticket.BackupCode)
		}
	}

	if len(publisher.Issued) != 1 || publisher.Issued[0].Quantity != 2 {
		t.Errorf("expected one ticket.issued event for 2 tickets, got %+v", publisher.Issued)
	}
}

func TestIssueExpiredReservation(t *testing.T) {
	res, tt := issuanceFixtures()
	invRepo := &MockInventoryRepository{
		GetReservationFunc: func(ctx context.Context, id string) (*domain.Reservation, error) { return res, nil },
		GetTicketTypeFunc:  func(ctx context.Context, id string) (*domain.TicketType, error) { return tt, nil },
		PromoteTxFunc: func(ctx context.Context, tx pgx.Tx, reservationID string) (*domain.Reservation, error) {
			return nil, domain.ErrReservationExpired
		},
	}
	svc := NewIssuanceService(&MockTxManager{}, invRepo, &MockTicketRepository{}, ticketcode.NewSigner([]byte("k")), nil)

	_, err := svc.Issue(context.Background(), "res-1", &dto.IssueRequest{Holder: dto.HolderRequest{Name: "Alex"}})
	if !errors.Is(err, domain.ErrReservationExpired) {
		t.Fatalf("expected ErrReservationExpired, got %v", err)
	}
}

func TestIssueCapacityExceededIsRetryable(t *testing.T) {
	res, tt := issuanceFixtures()
	invRepo := &MockInventoryRepository{
		GetReservationFunc: func(ctx context.Context, id string) (*domain.Reservation, error) { return res, nil },
		GetTicketTypeFunc:  func(ctx context.Context, id string) (*domain.TicketType, error) { return tt, nil },
		PromoteTxFunc: func(ctx context.Context, tx pgx.Tx, reservationID string) (*domain.Reservation, error) {
			return res, nil
		},
		AdjustSoldTxFunc: func(ctx context.Context, tx pgx.Tx, ticketTypeID string, delta int) error {
			return domain.ErrCapacityExceeded
		},
	}
	svc := NewIssuanceService(&MockTxManager{}, invRepo, &MockTicketRepository{}, ticketcode.NewSigner([]byte("k")), nil)

	_, err := svc.Issue(context.Background(), "res-1", &dto.IssueRequest{Holder: dto.HolderRequest{Name: "Alex"}})
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if !domain.IsRetryable(err) {
		t.Error("capacity exceeded during issuance must be retryable")
	}
}

func TestIssueRetriesOnBackupCodeCollision(t *testing.T) {
	res, tt := issuanceFixtures()
	res.Quantity = 1

	attempts := 0
	invRepo := &MockInventoryRepository{
		GetReservationFunc: func(ctx context.Context, id string) (*domain.Reservation, error) { return res, nil },
		GetTicketTypeFunc:  func(ctx context.Context, id string) (*domain.TicketType, error) { return tt, nil },
		PromoteTxFunc: func(ctx context.Context, tx pgx.Tx, reservationID string) (*domain.Reservation, error) {
			return res, nil
		},
	}
	ticketRepo := &MockTicketRepository{
		InsertTxFunc: func(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
			attempts++
			if attempts == 1 {
				return domain.ErrDuplicateBackupCode
			}
			return nil
		},
	}
	svc := NewIssuanceService(&MockTxManager{}, invRepo, ticketRepo, ticketcode.NewSigner([]byte("k")), nil)

	resp, err := svc.Issue(context.Background(), "res-1", &dto.IssueRequest{Holder: dto.HolderRequest{Name: "Alex"}})
	if err != nil {
		t.Fatalf("Issue failed after collision retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected a second attempt after collision, got %d", attempts)
	}
	if len(resp.Tickets) != 1 {
		t.Errorf("expected 1 ticket, got %d", len(resp.Tickets))
	}
}

func TestIssueValidatesHolder(t *testing.T) {
	svc := NewIssuanceService(&MockTxManager{}, &MockInventoryRepository{}, &MockTicketRepository{}, ticketcode.NewSigner([]byte("k")), nil)

	_, err := svc.Issue(context.Background(), "res-1", &dto.IssueRequest{})
	if !errors.Is(err, domain.ErrInvalidHolder) {
		t.Fatalf("expected ErrInvalidHolder, got %v", err)
	}

	_, err = svc.Issue(context.Background(), "", &dto.IssueRequest{Holder: dto.HolderRequest{Name: "Alex"}})
	if !errors.Is(err, domain.ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
}

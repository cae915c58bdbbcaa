package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prohmpiriya/entrygate/internal/domain"
)

// MockInventoryRepository is a mock implementation of InventoryRepository
type MockInventoryRepository struct {
	CreateTicketTypeFunc func(ctx context.Context, tt *domain.TicketType) error
	GetTicketTypeFunc    func(ctx context.Context, id string) (*domain.TicketType, error)
	ListTicketTypesFunc  func(ctx context.Context, eventID string) ([]*domain.TicketType, error)
	GetAvailabilityFunc  func(ctx context.Context, ticketTypeID string) (*domain.Availability, error)
	HoldFunc             func(ctx context.Context, ticketTypeID, sessionID string, quantity int, ttl time.Duration) (*domain.Reservation, error)
	GetReservationFunc   func(ctx context.Context, id string) (*domain.Reservation, error)
	ListActiveFunc       func(ctx context.Context, ticketTypeID string) ([]*domain.Reservation, error)
	ReleaseFunc          func(ctx context.Context, reservationID string) (bool, error)
	PromoteTxFunc        func(ctx context.Context, tx pgx.Tx, reservationID string) (*domain.Reservation, error)
	AdjustSoldTxFunc     func(ctx context.Context, tx pgx.Tx, ticketTypeID string, delta int) error
	SweepExpiredFunc     func(ctx context.Context) (int64, error)
}

func (m *MockInventoryRepository) CreateTicketType(ctx context.Context, tt *domain.TicketType) error {
	if m.CreateTicketTypeFunc != nil {
		return m.CreateTicketTypeFunc(ctx, tt)
	}
	return nil
}

func (m *MockInventoryRepository) GetTicketType(ctx context.Context, id string) (*domain.TicketType, error) {
	if m.GetTicketTypeFunc != nil {
		return m.GetTicketTypeFunc(ctx, id)
	}
	return nil, domain.ErrTicketTypeNotFound
}

func (m *MockInventoryRepository) ListTicketTypes(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	if m.ListTicketTypesFunc != nil {
		return m.ListTicketTypesFunc(ctx, eventID)
	}
	return []*domain.TicketType{}, nil
}

func (m *MockInventoryRepository) GetAvailability(ctx context.Context, ticketTypeID string) (*domain.Availability, error) {
	if m.GetAvailabilityFunc != nil {
		return m.GetAvailabilityFunc(ctx, ticketTypeID)
	}
	return nil, domain.ErrTicketTypeNotFound
}

func (m *MockInventoryRepository) Hold(ctx context.Context, ticketTypeID, sessionID string, quantity int, ttl time.Duration) (*domain.Reservation, error) {
	if m.HoldFunc != nil {
		return m.HoldFunc(ctx, ticketTypeID, sessionID, quantity, ttl)
	}
	return nil, domain.ErrInsufficientInventory
}

func (m *MockInventoryRepository) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	if m.GetReservationFunc != nil {
		return m.GetReservationFunc(ctx, id)
	}
	return nil, domain.ErrReservationNotFound
}

func (m *MockInventoryRepository) ListActiveReservations(ctx context.Context, ticketTypeID string) ([]*domain.Reservation, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, ticketTypeID)
	}
	return []*domain.Reservation{}, nil
}

func (m *MockInventoryRepository) Release(ctx context.Context, reservationID string) (bool, error) {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, reservationID)
	}
	return false, nil
}

func (m *MockInventoryRepository) PromoteTx(ctx context.Context, tx pgx.Tx, reservationID string) (*domain.Reservation, error) {
	if m.PromoteTxFunc != nil {
		return m.PromoteTxFunc(ctx, tx, reservationID)
	}
	return nil, domain.ErrReservationExpired
}

func (m *MockInventoryRepository) AdjustSoldTx(ctx context.Context, tx pgx.Tx, ticketTypeID string, delta int) error {
	if m.AdjustSoldTxFunc != nil {
		return m.AdjustSoldTxFunc(ctx, tx, ticketTypeID, delta)
	}
	return nil
}

func (m *MockInventoryRepository) SweepExpired(ctx context.Context) (int64, error) {
	if m.SweepExpiredFunc != nil {
		return m.SweepExpiredFunc(ctx)
	}
	return 0, nil
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	InsertTxFunc        func(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error
	GetByIDFunc         func(ctx context.Context, id string) (*domain.Ticket, error)
	GetByBackupCodeFunc func(ctx context.Context, eventID, code string) (*domain.Ticket, error)
	ListByEventFunc     func(ctx context.Context, eventID string) ([]*domain.Ticket, error)
	CheckInFunc         func(ctx context.Context, id string, at time.Time, scannerID string) (bool, error)
	TransitionFunc      func(ctx context.Context, tx pgx.Tx, id string, from, to domain.TicketStatus) (bool, error)
}

func (m *MockTicketRepository) InsertTx(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
	if m.InsertTxFunc != nil {
		return m.InsertTxFunc(ctx, tx, ticket)
	}
	return nil
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrTicketNotFound
}

func (m *MockTicketRepository) GetByBackupCode(ctx context.Context, eventID, code string) (*domain.Ticket, error) {
	if m.GetByBackupCodeFunc != nil {
		return m.GetByBackupCodeFunc(ctx, eventID, code)
	}
	return nil, domain.ErrTicketNotFound
}

func (m *MockTicketRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Ticket, error) {
	if m.ListByEventFunc != nil {
		return m.ListByEventFunc(ctx, eventID)
	}
	return []*domain.Ticket{}, nil
}

func (m *MockTicketRepository) CheckIn(ctx context.Context, id string, at time.Time, scannerID string) (bool, error) {
	if m.CheckInFunc != nil {
		return m.CheckInFunc(ctx, id, at, scannerID)
	}
	return false, nil
}

func (m *MockTicketRepository) Transition(ctx context.Context, tx pgx.Tx, id string, from, to domain.TicketStatus) (bool, error) {
	if m.TransitionFunc != nil {
		return m.TransitionFunc(ctx, tx, id, from, to)
	}
	return false, nil
}

// MockScanRepository is a mock implementation of ScanRepository
type MockScanRepository struct {
	mu             sync.Mutex
	Appended       []*domain.ScanRecord
	AppendFunc     func(ctx context.Context, record *domain.ScanRecord) error
	GetStatsFunc   func(ctx context.Context, eventID, scannerID string) (*domain.ScanStats, error)
	ListRecentFunc func(ctx context.Context, eventID string, limit int) ([]*domain.ScanRecord, error)
}

func (m *MockScanRepository) Append(ctx context.Context, record *domain.ScanRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Appended = append(m.Appended, record)
	return nil
}

func (m *MockScanRepository) GetStats(ctx context.Context, eventID, scannerID string) (*domain.ScanStats, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx, eventID, scannerID)
	}
	return &domain.ScanStats{EventID: eventID, ScannerID: scannerID}, nil
}

func (m *MockScanRepository) ListRecent(ctx context.Context, eventID string, limit int) ([]*domain.ScanRecord, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, eventID, limit)
	}
	return []*domain.ScanRecord{}, nil
}

// MockTxManager runs the transactional function with a nil tx. The repos in
// these tests are mocks, so no real transaction is needed.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, fn func(tx pgx.Tx) error) error
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(nil)
}

// MockEventPublisher records published events for assertions
type MockEventPublisher struct {
	mu          sync.Mutex
	Issued      []*domain.TicketsIssuedPayload
	Admitted    []*domain.EntryAdmittedPayload
	SweptCounts []int64
	Transitions []*domain.TicketTransitionPayload
	PublishErr  error
}

func (m *MockEventPublisher) PublishTicketsIssued(ctx context.Context, eventID string, payload *domain.TicketsIssuedPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Issued = append(m.Issued, payload)
	return nil
}

func (m *MockEventPublisher) PublishEntryAdmitted(ctx context.Context, eventID string, payload *domain.EntryAdmittedPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Admitted = append(m.Admitted, payload)
	return nil
}

func (m *MockEventPublisher) PublishReservationsSwept(ctx context.Context, count int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.SweptCounts = append(m.SweptCounts, count)
	return nil
}

func (m *MockEventPublisher) PublishTicketTransition(ctx context.Context, eventType domain.TicketEventType, eventID string, payload *domain.TicketTransitionPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Transitions = append(m.Transitions, payload)
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

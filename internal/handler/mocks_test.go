package handler

import (
	"context"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/dto"
)

// MockInventoryService is a mock implementation of InventoryService
type MockInventoryService struct {
	CreateTicketTypeFunc func(ctx context.Context, req *dto.CreateTicketTypeRequest) (*dto.TicketTypeResponse, error)
	GetTicketTypeFunc    func(ctx context.Context, id string) (*dto.TicketTypeResponse, error)
	ListTicketTypesFunc  func(ctx context.Context, eventID string) ([]*dto.TicketTypeResponse, error)
	GetAvailabilityFunc  func(ctx context.Context, ticketTypeID string) (*dto.AvailabilityResponse, error)
}

func (m *MockInventoryService) CreateTicketType(ctx context.Context, req *dto.CreateTicketTypeRequest) (*dto.TicketTypeResponse, error) {
	if m.CreateTicketTypeFunc != nil {
		return m.CreateTicketTypeFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockInventoryService) GetTicketType(ctx context.Context, id string) (*dto.TicketTypeResponse, error) {
	if m.GetTicketTypeFunc != nil {
		return m.GetTicketTypeFunc(ctx, id)
	}
	return nil, domain.ErrTicketTypeNotFound
}

func (m *MockInventoryService) ListTicketTypes(ctx context.Context, eventID string) ([]*dto.TicketTypeResponse, error) {
	if m.ListTicketTypesFunc != nil {
		return m.ListTicketTypesFunc(ctx, eventID)
	}
	return []*dto.TicketTypeResponse{}, nil
}

func (m *MockInventoryService) GetAvailability(ctx context.Context, ticketTypeID string) (*dto.AvailabilityResponse, error) {
	if m.GetAvailabilityFunc != nil {
		return m.GetAvailabilityFunc(ctx, ticketTypeID)
	}
	return nil, domain.ErrTicketTypeNotFound
}

// MockReservationService is a mock implementation of ReservationService
type MockReservationService struct {
	HoldFunc           func(ctx context.Context, req *dto.HoldRequest) (*dto.HoldResponse, error)
	ReleaseFunc        func(ctx context.Context, reservationID string) (*dto.ReleaseResponse, error)
	GetReservationFunc func(ctx context.Context, reservationID string) (*dto.HoldResponse, error)
	ListActiveFunc     func(ctx context.Context, ticketTypeID string) ([]*dto.HoldResponse, error)
}

func (m *MockReservationService) Hold(ctx context.Context, req *dto.HoldRequest) (*dto.HoldResponse, error) {
	if m.HoldFunc != nil {
		return m.HoldFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockReservationService) Release(ctx context.Context, reservationID string) (*dto.ReleaseResponse, error) {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, reservationID)
	}
	return &dto.ReleaseResponse{ReservationID: reservationID, Released: false}, nil
}

func (m *MockReservationService) GetReservation(ctx context.Context, reservationID string) (*dto.HoldResponse, error) {
	if m.GetReservationFunc != nil {
		return m.GetReservationFunc(ctx, reservationID)
	}
	return nil, domain.ErrReservationNotFound
}

func (m *MockReservationService) ListActive(ctx context.Context, ticketTypeID string) ([]*dto.HoldResponse, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, ticketTypeID)
	}
	return []*dto.HoldResponse{}, nil
}

// MockIssuanceService is a mock implementation of IssuanceService
type MockIssuanceService struct {
	IssueFunc func(ctx context.Context, reservationID string, req *dto.IssueRequest) (*dto.IssueResponse, error)
}

func (m *MockIssuanceService) Issue(ctx context.Context, reservationID string, req *dto.IssueRequest) (*dto.IssueResponse, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, reservationID, req)
	}
	return nil, nil
}

// MockEntryService is a mock implementation of EntryService
type MockEntryService struct {
	ScanFunc       func(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error)
	ValidateFunc   func(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error)
	GetStatsFunc   func(ctx context.Context, eventID, scannerID string) (*dto.ScanStatsResponse, error)
	ListRecentFunc func(ctx context.Context, eventID string, limit int) ([]*dto.ScanRecordResponse, error)
}

func (m *MockEntryService) Scan(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error) {
	if m.ScanFunc != nil {
		return m.ScanFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockEntryService) Validate(ctx context.Context, req *dto.ScanRequest) (*dto.ScanResponse, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockEntryService) GetStats(ctx context.Context, eventID, scannerID string) (*dto.ScanStatsResponse, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx, eventID, scannerID)
	}
	return &dto.ScanStatsResponse{EventID: eventID, ScannerID: scannerID}, nil
}

func (m *MockEntryService) ListRecent(ctx context.Context, eventID string, limit int) ([]*dto.ScanRecordResponse, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, eventID, limit)
	}
	return []*dto.ScanRecordResponse{}, nil
}

// MockAdminService is a mock implementation of AdminService
type MockAdminService struct {
	RefundFunc func(ctx context.Context, ticketID string) (*dto.TransitionResponse, error)
	CancelFunc func(ctx context.Context, ticketID string) (*dto.TransitionResponse, error)
}

func (m *MockAdminService) Refund(ctx context.Context, ticketID string) (*dto.TransitionResponse, error) {
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, ticketID)
	}
	return nil, nil
}

func (m *MockAdminService) Cancel(ctx context.Context, ticketID string) (*dto.TransitionResponse, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, ticketID)
	}
	return nil, nil
}

package mocks

import (
	"context"
	"time"

	"github.com/showsewa/seat-inventory/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockLedgerRepo struct {
	mock.Mock
	domain.LedgerRepository
}

func (m *MockLedgerRepo) ProvisionShowing(ctx context.Context, showing domain.Showing, layout []domain.SeatLayout) error {
	args := m.Called(ctx, showing, layout)
	return args.Error(0)
}

func (m *MockLedgerRepo) GetShowing(ctx context.Context, showingID int64) (*domain.Showing, error) {
	args := m.Called(ctx, showingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Showing), args.Error(1)
}

func (m *MockLedgerRepo) GetSeats(ctx context.Context, showingID int64) ([]domain.SeatRecord, error) {
	args := m.Called(ctx, showingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatRecord), args.Error(1)
}

func (m *MockLedgerRepo) GetSeatsByIDs(ctx context.Context, showingID int64, seatIDs []string) ([]domain.SeatRecord, error) {
	args := m.Called(ctx, showingID, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatRecord), args.Error(1)
}

func (m *MockLedgerRepo) GetSeatsByHolder(ctx context.Context, holderToken string) ([]domain.SeatRecord, error) {
	args := m.Called(ctx, holderToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatRecord), args.Error(1)
}

func (m *MockLedgerRepo) HoldSeats(
	ctx context.Context,
	showingID int64,
	seatIDs []string,
	channel domain.Channel,
	holderToken string,
	expiresAt time.Time,
) ([]domain.SeatRecord, error) {
	args := m.Called(ctx, showingID, seatIDs, channel, holderToken, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatRecord), args.Error(1)
}

func (m *MockLedgerRepo) ExtendHold(ctx context.Context, holderToken string, now, expiresAt time.Time) (int, error) {
	args := m.Called(ctx, holderToken, now, expiresAt)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerRepo) ReleaseHold(ctx context.Context, holderToken string) (int, error) {
	args := m.Called(ctx, holderToken)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerRepo) ReleaseSeat(ctx context.Context, showingID int64, seatID string, version int64) error {
	args := m.Called(ctx, showingID, seatID, version)
	return args.Error(0)
}

func (m *MockLedgerRepo) ConfirmHold(
	ctx context.Context,
	holderToken, bookingReference string,
	channel domain.Channel,
	now time.Time,
) (*domain.ChannelBooking, error) {
	args := m.Called(ctx, holderToken, bookingReference, channel, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChannelBooking), args.Error(1)
}

func (m *MockLedgerRepo) MarkSeatsSold(
	ctx context.Context,
	showingID int64,
	seatIDs []string,
	channel domain.Channel,
	bookingReference string,
	now time.Time,
) ([]domain.SeatRecord, error) {
	args := m.Called(ctx, showingID, seatIDs, channel, bookingReference, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatRecord), args.Error(1)
}

func (m *MockLedgerRepo) CancelSale(ctx context.Context, bookingReference string, now time.Time) (*domain.ChannelBooking, error) {
	args := m.Called(ctx, bookingReference, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChannelBooking), args.Error(1)
}

func (m *MockLedgerRepo) BlockSeats(ctx context.Context, showingID int64, seatIDs []string) error {
	args := m.Called(ctx, showingID, seatIDs)
	return args.Error(0)
}

func (m *MockLedgerRepo) UnblockSeats(ctx context.Context, showingID int64, seatIDs []string) error {
	args := m.Called(ctx, showingID, seatIDs)
	return args.Error(0)
}

func (m *MockLedgerRepo) ExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.SeatRecord, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatRecord), args.Error(1)
}

func (m *MockLedgerRepo) ActiveShowingsByTheater(ctx context.Context, theaterID int64, now time.Time) ([]domain.Showing, error) {
	args := m.Called(ctx, theaterID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Showing), args.Error(1)
}

package mocks

import (
	"context"

	"github.com/showsewa/seat-inventory/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepo struct {
	mock.Mock
	domain.BookingRepository
}

func (m *MockBookingRepo) Create(ctx context.Context, booking *domain.ChannelBooking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepo) GetByReference(ctx context.Context, bookingReference string) (*domain.ChannelBooking, error) {
	args := m.Called(ctx, bookingReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChannelBooking), args.Error(1)
}

func (m *MockBookingRepo) ListByShowing(ctx context.Context, showingID int64, statuses ...domain.BookingStatus) ([]domain.ChannelBooking, error) {
	callArgs := make([]any, 0, len(statuses)+2)
	callArgs = append(callArgs, ctx, showingID)
	for _, status := range statuses {
		callArgs = append(callArgs, status)
	}

	args := m.Called(callArgs...)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChannelBooking), args.Error(1)
}

func (m *MockBookingRepo) UpdateStatus(ctx context.Context, bookingReference string, status domain.BookingStatus) error {
	args := m.Called(ctx, bookingReference, status)
	return args.Error(0)
}

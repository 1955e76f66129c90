package mocks

import (
	"context"
	"time"

	"github.com/showsewa/seat-inventory/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockChannelConfigRepo struct {
	mock.Mock
	domain.ChannelConfigRepository
}

func (m *MockChannelConfigRepo) Get(ctx context.Context, theaterID int64) (*domain.TheaterChannelConfig, error) {
	args := m.Called(ctx, theaterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TheaterChannelConfig), args.Error(1)
}

func (m *MockChannelConfigRepo) Upsert(ctx context.Context, config *domain.TheaterChannelConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockChannelConfigRepo) UpdateLastSync(ctx context.Context, theaterID int64, syncedAt time.Time) error {
	args := m.Called(ctx, theaterID, syncedAt)
	return args.Error(0)
}

func (m *MockChannelConfigRepo) ListAutoSync(ctx context.Context) ([]domain.TheaterChannelConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TheaterChannelConfig), args.Error(1)
}

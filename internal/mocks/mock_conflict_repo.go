package mocks

import (
	"context"
	"time"

	"github.com/showsewa/seat-inventory/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockConflictRepo struct {
	mock.Mock
	domain.ConflictRepository
}

func (m *MockConflictRepo) Create(ctx context.Context, conflict *domain.ReconciliationConflict) error {
	args := m.Called(ctx, conflict)
	return args.Error(0)
}

func (m *MockConflictRepo) ListOpenByTheater(ctx context.Context, theaterID int64) ([]domain.ReconciliationConflict, error) {
	args := m.Called(ctx, theaterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationConflict), args.Error(1)
}

func (m *MockConflictRepo) Resolve(ctx context.Context, conflictID string, resolvedAt time.Time) error {
	args := m.Called(ctx, conflictID, resolvedAt)
	return args.Error(0)
}

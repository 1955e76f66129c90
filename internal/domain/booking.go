package domain

import (
	"context"
	"time"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingPending   BookingStatus = "PENDING"
	BookingCancelled BookingStatus = "CANCELLED"
)

// ChannelBooking is the durable audit trail of a completed or cancelled sale.
// Rows are append/soft-update only: cancellation flips the status, it never
// deletes or overwrites the original record. BookingReference doubles as the
// idempotency key for confirm retries.
type ChannelBooking struct {
	ID               int64
	BookingReference string
	Channel          Channel
	ShowingID        int64
	Seats            []string
	Status           BookingStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type BookingRepository interface {
	Create(ctx context.Context, booking *ChannelBooking) error
	GetByReference(ctx context.Context, bookingReference string) (*ChannelBooking, error)
	ListByShowing(ctx context.Context, showingID int64, statuses ...BookingStatus) ([]ChannelBooking, error)
	UpdateStatus(ctx context.Context, bookingReference string, status BookingStatus) error
}

// ReconciliationConflict records a seat the ledger and an external channel
// disagree about. Conflicts are never auto-resolved; an operator clears them.
type ReconciliationConflict struct {
	ID               string
	TheaterID        int64
	ShowingID        int64
	SeatID           string
	Channel          Channel
	LedgerReference  string
	ChannelReference string
	Detail           string
	DetectedAt       time.Time
	ResolvedAt       time.Time
}

type ConflictRepository interface {
	Create(ctx context.Context, conflict *ReconciliationConflict) error
	ListOpenByTheater(ctx context.Context, theaterID int64) ([]ReconciliationConflict, error)
	Resolve(ctx context.Context, conflictID string, resolvedAt time.Time) error
}

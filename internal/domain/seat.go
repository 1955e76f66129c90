package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type SeatState string

const (
	SeatAvailable SeatState = "AVAILABLE"
	SeatHeld      SeatState = "HELD"
	SeatSold      SeatState = "SOLD"
	SeatBlocked   SeatState = "BLOCKED"
)

// SeatRecord is the canonical ledger row for one seat of one showing. All
// mutations go through version-guarded transitions; a request carrying a
// stale version is rejected with ErrEditConflict.
type SeatRecord struct {
	ShowingID        int64
	SeatID           string
	State            SeatState
	Category         string
	Price            decimal.Decimal
	HolderToken      string
	HoldExpiresAt    time.Time
	Channel          Channel
	Version          int64
	SoldAt           time.Time
	BookingReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Showing is the reference row written when catalog management provisions a
// seat layout. The engine never mutates it beyond retirement.
type Showing struct {
	ID        int64
	TheaterID int64
	Screen    string
	StartsAt  time.Time
	RetiredAt time.Time
}

// SeatLayout describes one seat of a layout at provisioning time.
type SeatLayout struct {
	SeatID   string
	Category string
	Price    decimal.Decimal
}

// canTransition encodes the seat life cycle: AVAILABLE -> HELD -> SOLD,
// HELD -> AVAILABLE on release or expiry, AVAILABLE/HELD -> BLOCKED and back
// for administrative maintenance, and SOLD -> AVAILABLE only through the
// audited cancellation path.
var canTransition = map[SeatState][]SeatState{
	SeatAvailable: {SeatHeld, SeatBlocked},
	SeatHeld:      {SeatSold, SeatAvailable, SeatBlocked},
	SeatBlocked:   {SeatAvailable},
	SeatSold:      {SeatAvailable},
}

// CanTransition reports whether the state machine permits moving from one
// seat state to another.
func CanTransition(from, to SeatState) bool {
	for _, next := range canTransition[from] {
		if next == to {
			return true
		}
	}
	return false
}

// HoldExpired reports whether the record is a hold whose deadline has passed.
func (s SeatRecord) HoldExpired(now time.Time) bool {
	return s.State == SeatHeld && !s.HoldExpiresAt.After(now)
}

// LedgerRepository is the single write path to the seat ledger. Confirm,
// claim and cancel also append the matching ChannelBooking audit row inside
// the same transaction, so a sale and its audit trail can never diverge.
type LedgerRepository interface {
	ProvisionShowing(ctx context.Context, showing Showing, layout []SeatLayout) error
	GetShowing(ctx context.Context, showingID int64) (*Showing, error)
	GetSeats(ctx context.Context, showingID int64) ([]SeatRecord, error)
	GetSeatsByIDs(ctx context.Context, showingID int64, seatIDs []string) ([]SeatRecord, error)
	GetSeatsByHolder(ctx context.Context, holderToken string) ([]SeatRecord, error)
	HoldSeats(ctx context.Context, showingID int64, seatIDs []string, channel Channel, holderToken string, expiresAt time.Time) ([]SeatRecord, error)
	ExtendHold(ctx context.Context, holderToken string, now, expiresAt time.Time) (int, error)
	ReleaseHold(ctx context.Context, holderToken string) (int, error)
	ReleaseSeat(ctx context.Context, showingID int64, seatID string, version int64) error
	ConfirmHold(ctx context.Context, holderToken, bookingReference string, channel Channel, now time.Time) (*ChannelBooking, error)
	MarkSeatsSold(ctx context.Context, showingID int64, seatIDs []string, channel Channel, bookingReference string, now time.Time) ([]SeatRecord, error)
	CancelSale(ctx context.Context, bookingReference string, now time.Time) (*ChannelBooking, error)
	BlockSeats(ctx context.Context, showingID int64, seatIDs []string) error
	UnblockSeats(ctx context.Context, showingID int64, seatIDs []string) error
	ExpiredHolds(ctx context.Context, now time.Time, limit int) ([]SeatRecord, error)
	ActiveShowingsByTheater(ctx context.Context, theaterID int64, now time.Time) ([]Showing, error)
}

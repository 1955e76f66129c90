package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/showsewa/seat-inventory/internal/clock"
	"github.com/showsewa/seat-inventory/internal/domain"
)

// ConfirmationService finalizes holds into permanent sales. It is the only
// path that produces a SOLD seat from the storefront flow, and it is
// idempotent on the booking reference so retried calls from the payment
// collaborator cannot double-charge inventory.
type ConfirmationService struct {
	ledger   domain.LedgerRepository
	bookings domain.BookingRepository
	clock    clock.Clock
}

func NewConfirmationService(
	ledger domain.LedgerRepository,
	bookings domain.BookingRepository,
	clk clock.Clock) *ConfirmationService {

	return &ConfirmationService{
		ledger:   ledger,
		bookings: bookings,
		clock:    clk,
	}
}

// Confirm atomically transitions all seats under the token from HELD to
// SOLD, stamping the booking reference, and appends the CONFIRMED audit
// record. A repeat call with the same reference returns the original booking.
// If the hold expired in the interim it fails with ErrHoldExpired; the engine
// never silently re-reserves.
func (s *ConfirmationService) Confirm(
	ctx context.Context,
	holderToken, bookingReference string,
	channel domain.Channel) (*domain.ChannelBooking, error) {

	if bookingReference == "" {
		return nil, fmt.Errorf("booking reference is required")
	}

	existing, err := s.bookings.GetByReference(ctx, bookingReference)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.Status != domain.BookingConfirmed {
			return nil, domain.ErrBookingExists
		}

		// The idempotent return is only for a retry of the same sale. A
		// different hold colliding on the reference must not be told its
		// seats were sold.
		seats, err := s.ledger.GetSeatsByHolder(ctx, holderToken)
		if err != nil {
			return nil, err
		}

		if len(seats) > 0 && !bookingCovers(existing, seats) {
			return nil, domain.ErrBookingExists
		}

		return existing, nil
	}

	booking, err := s.ledger.ConfirmHold(ctx, holderToken, bookingReference, channel, s.clock.Now())
	if err != nil {
		// Two racing confirms with the same reference: the loser reads the
		// winner's result.
		if errors.Is(err, domain.ErrBookingExists) {
			return s.bookings.GetByReference(ctx, bookingReference)
		}

		return nil, err
	}

	return booking, nil
}

// bookingCovers reports whether the booking records a sale of exactly the
// held seats.
func bookingCovers(booking *domain.ChannelBooking, seats []domain.SeatRecord) bool {
	if booking.ShowingID != seats[0].ShowingID || len(booking.Seats) != len(seats) {
		return false
	}

	sold := make(map[string]bool, len(booking.Seats))
	for _, seatID := range booking.Seats {
		sold[seatID] = true
	}

	for _, seat := range seats {
		if !sold[seat.SeatID] {
			return false
		}
	}

	return true
}

// CancelSale returns the seats named by the booking to AVAILABLE and flips
// the audit record to CANCELLED. This is a refund-triggered administrative
// operation, never part of the happy path.
func (s *ConfirmationService) CancelSale(
	ctx context.Context,
	bookingReference string) (*domain.ChannelBooking, error) {

	return s.ledger.CancelSale(ctx, bookingReference, s.clock.Now())
}

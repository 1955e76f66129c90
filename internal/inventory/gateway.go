package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/showsewa/seat-inventory/internal/clock"
	"github.com/showsewa/seat-inventory/internal/domain"
)

// ConfigSource resolves per-theater channel configuration. In production it
// is the Redis-backed cache in front of the config repository; the hot claim
// path must not hit the database for every call.
type ConfigSource interface {
	Get(ctx context.Context, theaterID int64) (*domain.TheaterChannelConfig, error)
}

// ChannelClaim is an externally-originated sale or reservation request. The
// channel's own external reference doubles as the booking reference, which
// makes at-least-once delivery over the report queue safe.
type ChannelClaim struct {
	Channel   domain.Channel
	ShowingID int64
	SeatIDs   []string
	Reference string
}

// ChannelGateway lets non-web channels claim and release seats through the
// same state machine as the storefront. Adding a channel means adding a
// constant and enabling it per theater, nothing more.
type ChannelGateway struct {
	ledger   domain.LedgerRepository
	bookings domain.BookingRepository
	configs  ConfigSource
	holds    *HoldManager
	confirms *ConfirmationService
	clock    clock.Clock
	logger   *slog.Logger
}

func NewChannelGateway(
	ledger domain.LedgerRepository,
	bookings domain.BookingRepository,
	configs ConfigSource,
	holds *HoldManager,
	confirms *ConfirmationService,
	clk clock.Clock,
	logger *slog.Logger) *ChannelGateway {

	return &ChannelGateway{
		ledger:   ledger,
		bookings: bookings,
		configs:  configs,
		holds:    holds,
		confirms: confirms,
		clock:    clk,
		logger:   logger,
	}
}

// Sell is the interactive adapter path for channels with a live operator
// (box office, POS): a reserve+confirm pair under one short-lived hold, so
// the sale goes through exactly the same state machine as a web checkout.
func (g *ChannelGateway) Sell(ctx context.Context, claim ChannelClaim) (*domain.ChannelBooking, error) {
	if err := g.authorize(ctx, claim); err != nil {
		return nil, err
	}

	if existing := g.existingBooking(ctx, claim.Reference); existing != nil {
		return existing, nil
	}

	hold, err := g.holds.Reserve(ctx, claim.ShowingID, claim.SeatIDs, claim.Channel, MinHoldDuration)
	if err != nil {
		return nil, err
	}

	booking, err := g.confirms.Confirm(ctx, hold.HolderToken, claim.Reference, claim.Channel)
	if err != nil {
		if releaseErr := g.holds.Release(ctx, hold.HolderToken); releaseErr != nil {
			g.logger.Error(
				"failed to release hold after channel sale error",
				"holder_token", hold.HolderToken,
				"error", releaseErr,
			)
		}

		return nil, err
	}

	return booking, nil
}

// Claim is the after-the-fact adapter path for channels that report sales
// that already happened (walk-ins, partner platforms). The booking record is
// written first: it is the channel's truth and must survive even when the
// seat claim loses a race, in which case the reconciliation job surfaces the
// disagreement to an operator.
func (g *ChannelGateway) Claim(ctx context.Context, claim ChannelClaim) (*domain.ChannelBooking, error) {
	if err := g.authorize(ctx, claim); err != nil {
		return nil, err
	}

	if existing := g.existingBooking(ctx, claim.Reference); existing != nil {
		return existing, nil
	}

	booking := &domain.ChannelBooking{
		BookingReference: claim.Reference,
		Channel:          claim.Channel,
		ShowingID:        claim.ShowingID,
		Seats:            claim.SeatIDs,
		Status:           domain.BookingConfirmed,
	}

	err := g.bookings.Create(ctx, booking)
	if err != nil {
		if errors.Is(err, domain.ErrBookingExists) {
			return g.bookings.GetByReference(ctx, claim.Reference)
		}

		return nil, err
	}

	_, err = g.ledger.MarkSeatsSold(ctx, claim.ShowingID, claim.SeatIDs, claim.Channel, claim.Reference, g.clock.Now())
	if err != nil {
		var unavailable *domain.SeatUnavailableError
		if errors.As(err, &unavailable) || errors.Is(err, domain.ErrEditConflict) {
			g.logger.Warn(
				"channel claim recorded but seats could not be applied to the ledger",
				"channel", claim.Channel,
				"showing_id", claim.ShowingID,
				"booking_reference", claim.Reference,
				"error", err,
			)
		}

		return nil, err
	}

	return booking, nil
}

// CancelClaim backs out an externally-cancelled sale through the audited
// cancellation path.
func (g *ChannelGateway) CancelClaim(
	ctx context.Context,
	channel domain.Channel,
	reference string) (*domain.ChannelBooking, error) {

	booking, err := g.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if err := g.authorize(ctx, ChannelClaim{Channel: channel, ShowingID: booking.ShowingID}); err != nil {
		return nil, err
	}

	if booking.Status == domain.BookingCancelled {
		return booking, nil
	}

	return g.ledger.CancelSale(ctx, reference, g.clock.Now())
}

func (g *ChannelGateway) authorize(ctx context.Context, claim ChannelClaim) error {
	if !domain.ValidChannel(claim.Channel) {
		return fmt.Errorf("unknown channel: %s", claim.Channel)
	}

	showing, err := g.ledger.GetShowing(ctx, claim.ShowingID)
	if err != nil {
		return err
	}

	config, err := g.configs.Get(ctx, showing.TheaterID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			// A theater that was never onboarded for multi-channel sales only
			// sells through the storefront.
			if claim.Channel == domain.ChannelShowsewa {
				return nil
			}

			return domain.ErrChannelDisabled
		}

		return err
	}

	if !config.ChannelEnabled(claim.Channel) {
		return domain.ErrChannelDisabled
	}

	return nil
}

func (g *ChannelGateway) existingBooking(ctx context.Context, reference string) *domain.ChannelBooking {
	booking, err := g.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil
	}

	if booking.Status != domain.BookingConfirmed {
		return nil
	}

	return booking
}

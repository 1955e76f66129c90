package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/showsewa/seat-inventory/internal/clock"
	"github.com/showsewa/seat-inventory/internal/domain"
)

const reconcileWakeInterval = time.Minute

// SyncReport summarizes one reconciliation pass over a theater.
type SyncReport struct {
	TheaterID int64     `json:"theaterId"`
	Showings  int       `json:"showings"`
	Matched   int       `json:"matched"`
	Applied   int       `json:"applied"`
	Conflicts int       `json:"conflicts"`
	SyncedAt  time.Time `json:"syncedAt"`
}

// Reconciler periodically folds externally-reported channel activity into
// the canonical ledger. It applies sales the ledger is missing, records
// conflicting claims for operator review, and never auto-resolves a
// disagreement.
type Reconciler struct {
	ledger    domain.LedgerRepository
	bookings  domain.BookingRepository
	configs   domain.ChannelConfigRepository
	conflicts domain.ConflictRepository
	clock     clock.Clock
	lease     *Lease
	logger    *slog.Logger
}

func NewReconciler(
	ledger domain.LedgerRepository,
	bookings domain.BookingRepository,
	configs domain.ChannelConfigRepository,
	conflicts domain.ConflictRepository,
	clk clock.Clock,
	lease *Lease,
	logger *slog.Logger) *Reconciler {

	return &Reconciler{
		ledger:    ledger,
		bookings:  bookings,
		configs:   configs,
		conflicts: conflicts,
		clock:     clk,
		lease:     lease,
		logger:    logger,
	}
}

// Run wakes every minute and syncs each theater whose autoSync interval has
// elapsed. Theaters with autoSync off are only synced by manual trigger.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("starting reconciliation job")

	ticker := time.NewTicker(reconcileWakeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping reconciliation job")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	acquired, err := r.lease.TryAcquire(ctx, "reconciler")
	if err != nil {
		r.logger.Error("reconciler lease error", "error", err)
		return
	}

	if !acquired {
		return
	}
	defer r.lease.Release(ctx, "reconciler")

	configs, err := r.configs.ListAutoSync(ctx)
	if err != nil {
		r.logger.Error("failed to list auto-sync theaters", "error", err)
		return
	}

	now := r.clock.Now()

	for _, config := range configs {
		if !config.SyncDue(now) {
			continue
		}

		if _, err := r.SyncTheater(ctx, config.TheaterID); err != nil {
			// One bad theater never halts the sweep.
			r.logger.Error("theater sync failed", "theater_id", config.TheaterID, "error", err)
		}
	}
}

// SyncTheater reconciles every active showing of the theater against the
// channel-reported booking trail. It updates lastSyncAt on completion
// regardless of outcome. Manual triggers call this directly, bypassing the
// autoSync schedule.
func (r *Reconciler) SyncTheater(ctx context.Context, theaterID int64) (*SyncReport, error) {
	config, err := r.configs.Get(ctx, theaterID)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	report := &SyncReport{TheaterID: theaterID, SyncedAt: now}

	defer func() {
		if err := r.configs.UpdateLastSync(ctx, theaterID, now); err != nil {
			r.logger.Error("failed to update last sync time", "theater_id", theaterID, "error", err)
		}
	}()

	showings, err := r.ledger.ActiveShowingsByTheater(ctx, theaterID, now)
	if err != nil {
		return nil, err
	}

	report.Showings = len(showings)

	for _, showing := range showings {
		if err := r.syncShowing(ctx, config, showing, report); err != nil {
			r.logger.Error(
				"failed to reconcile showing",
				"theater_id", theaterID,
				"showing_id", showing.ID,
				"error", err,
			)
		}
	}

	r.logger.Info(
		"theater reconciled",
		"theater_id", theaterID,
		"showings", report.Showings,
		"matched", report.Matched,
		"applied", report.Applied,
		"conflicts", report.Conflicts,
	)

	return report, nil
}

func (r *Reconciler) syncShowing(
	ctx context.Context,
	config *domain.TheaterChannelConfig,
	showing domain.Showing,
	report *SyncReport) error {

	seats, err := r.ledger.GetSeats(ctx, showing.ID)
	if err != nil {
		return err
	}

	ledgerSeats := make(map[string]domain.SeatRecord, len(seats))
	for _, seat := range seats {
		ledgerSeats[seat.SeatID] = seat
	}

	bookings, err := r.bookings.ListByShowing(ctx, showing.ID, domain.BookingConfirmed)
	if err != nil {
		return err
	}

	for _, booking := range bookings {
		if booking.Channel == domain.ChannelShowsewa {
			// Storefront sales are written through the ledger in the first
			// place; only externally-reported activity can drift.
			continue
		}

		if !config.ChannelEnabled(booking.Channel) {
			continue
		}

		r.mergeBooking(ctx, showing, booking, ledgerSeats, report)
	}

	return nil
}

// mergeBooking folds one channel-reported booking into the ledger: match,
// missing-in-ledger (apply), or conflict (record, leave the ledger alone).
func (r *Reconciler) mergeBooking(
	ctx context.Context,
	showing domain.Showing,
	booking domain.ChannelBooking,
	ledgerSeats map[string]domain.SeatRecord,
	report *SyncReport) {

	missing := make([]string, 0)

	for _, seatID := range booking.Seats {
		seat, ok := ledgerSeats[seatID]
		if !ok {
			r.recordConflict(ctx, showing, booking, seatID, "", "seat not present in ledger", report)
			continue
		}

		switch {
		case seat.State == domain.SeatSold && seat.BookingReference == booking.BookingReference:
			report.Matched++
		case seat.State == domain.SeatAvailable:
			missing = append(missing, seatID)
		case seat.State == domain.SeatSold:
			r.recordConflict(
				ctx,
				showing,
				booking,
				seatID,
				seat.BookingReference,
				"ledger and channel claim the same seat under different references",
				report,
			)
		default:
			detail := fmt.Sprintf("channel reports a sale but the ledger has the seat %s", seat.State)
			r.recordConflict(ctx, showing, booking, seatID, seat.BookingReference, detail, report)
		}
	}

	if len(missing) == 0 {
		return
	}

	_, err := r.ledger.MarkSeatsSold(ctx, showing.ID, missing, booking.Channel, booking.BookingReference, r.clock.Now())
	if err != nil {
		// A racing hold or sale moved the seats since we read them; the next
		// run will classify them with fresh state.
		if errors.Is(err, domain.ErrEditConflict) {
			return
		}

		var unavailable *domain.SeatUnavailableError
		if errors.As(err, &unavailable) {
			return
		}

		r.logger.Error(
			"failed to apply channel booking to ledger",
			"showing_id", showing.ID,
			"booking_reference", booking.BookingReference,
			"error", err,
		)
		return
	}

	report.Applied += len(missing)
}

func (r *Reconciler) recordConflict(
	ctx context.Context,
	showing domain.Showing,
	booking domain.ChannelBooking,
	seatID, ledgerReference, detail string,
	report *SyncReport) {

	conflict := &domain.ReconciliationConflict{
		ID:               uuid.New().String(),
		TheaterID:        showing.TheaterID,
		ShowingID:        showing.ID,
		SeatID:           seatID,
		Channel:          booking.Channel,
		LedgerReference:  ledgerReference,
		ChannelReference: booking.BookingReference,
		Detail:           detail,
		DetectedAt:       r.clock.Now(),
	}

	if err := r.conflicts.Create(ctx, conflict); err != nil {
		r.logger.Error("failed to record reconciliation conflict", "seat_id", seatID, "error", err)
		return
	}

	report.Conflicts++
}

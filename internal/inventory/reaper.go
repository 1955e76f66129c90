package inventory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/showsewa/seat-inventory/internal/clock"
	"github.com/showsewa/seat-inventory/internal/domain"
)

const (
	DefaultReapInterval = 10 * time.Second
	reapBatchSize       = 500
)

// Reaper continuously returns expired holds to the pool. Expiry is
// data-driven: the sweep compares stored deadlines against the current time,
// so it stays correct across process restarts and with concurrent instances.
type Reaper struct {
	ledger   domain.LedgerRepository
	clock    clock.Clock
	lease    *Lease
	interval time.Duration
	logger   *slog.Logger
}

func NewReaper(
	ledger domain.LedgerRepository,
	clk clock.Clock,
	lease *Lease,
	interval time.Duration,
	logger *slog.Logger) *Reaper {

	if interval <= 0 {
		interval = DefaultReapInterval
	}

	return &Reaper{
		ledger:   ledger,
		clock:    clk,
		lease:    lease,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on a fixed interval until the context is cancelled. Individual
// failures are logged and never halt the loop.
func (r *Reaper) Run(ctx context.Context) {
	r.logger.Info("starting expiry reaper", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping expiry reaper")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("reaper sweep failed", "error", err)
			}
		}
	}
}

// Sweep releases every hold past its deadline and returns how many seats
// went back to the pool. A seat whose version moved between the scan and
// the release lost a race against a confirm or extend and is skipped;
// reaping never touches an already-sold seat.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	acquired, err := r.lease.TryAcquire(ctx, "reaper")
	if err != nil {
		return 0, err
	}

	if !acquired {
		return 0, nil
	}
	defer r.lease.Release(ctx, "reaper")

	expired, err := r.ledger.ExpiredHolds(ctx, r.clock.Now(), reapBatchSize)
	if err != nil {
		return 0, err
	}

	released := 0

	for _, seat := range expired {
		err := r.ledger.ReleaseSeat(ctx, seat.ShowingID, seat.SeatID, seat.Version)
		if err != nil {
			if errors.Is(err, domain.ErrEditConflict) {
				continue
			}

			r.logger.Error(
				"failed to release expired hold",
				"showing_id", seat.ShowingID,
				"seat_id", seat.SeatID,
				"error", err,
			)
			continue
		}

		released++
	}

	if released > 0 {
		r.logger.Info("released expired holds", "count", released)
	}

	return released, nil
}

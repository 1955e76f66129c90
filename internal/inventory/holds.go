// Package inventory implements the seat reservation engine: the hold
// protocol, sale confirmation, the multi-channel gateway, the expiry reaper
// and the reconciliation job. The seat ledger in durable storage is the only
// shared mutable state; every transition is a version-guarded conditional
// write, so the engine stays correct with any number of instances running.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/showsewa/seat-inventory/internal/clock"
	"github.com/showsewa/seat-inventory/internal/domain"
)

const (
	// MinHoldDuration and MaxHoldDuration bound how long a checkout may pin
	// seats. Requests outside the range are clamped, not rejected.
	MinHoldDuration = time.Minute
	MaxHoldDuration = 30 * time.Minute
)

// HoldManager creates, renews and releases time-boxed holds. At most one
// holder per seat is enforced by the ledger's all-or-nothing hold transition.
type HoldManager struct {
	ledger domain.LedgerRepository
	clock  clock.Clock
}

func NewHoldManager(ledger domain.LedgerRepository, clk clock.Clock) *HoldManager {
	return &HoldManager{
		ledger: ledger,
		clock:  clk,
	}
}

// Reserve places all requested seats into HELD under one fresh holder token.
// If any seat is not AVAILABLE the whole request fails with a
// SeatUnavailableError naming the conflicting seats; no partial hold is ever
// left behind.
func (m *HoldManager) Reserve(
	ctx context.Context,
	showingID int64,
	seatIDs []string,
	channel domain.Channel,
	duration time.Duration) (*domain.Hold, error) {

	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("at least one seat is required")
	}

	seen := make(map[string]bool, len(seatIDs))
	for _, seatID := range seatIDs {
		if seen[seatID] {
			return nil, fmt.Errorf("duplicate seat: %s", seatID)
		}
		seen[seatID] = true
	}

	if !domain.ValidChannel(channel) {
		return nil, fmt.Errorf("unknown channel: %s", channel)
	}

	duration = ClampHoldDuration(duration)

	holderToken := uuid.New().String()
	expiresAt := m.clock.Now().Add(duration)

	seats, err := m.ledger.HoldSeats(ctx, showingID, seatIDs, channel, holderToken, expiresAt)
	if err != nil {
		return nil, err
	}

	return &domain.Hold{
		HolderToken: holderToken,
		ShowingID:   showingID,
		Channel:     channel,
		Seats:       seats,
		ExpiresAt:   expiresAt,
	}, nil
}

// Extend pushes the deadline of every seat under the token forward by the
// given amount. It is the only way to renew a hold; there is no automatic
// renewal. The resulting deadline is capped at MaxHoldDuration from now.
func (m *HoldManager) Extend(
	ctx context.Context,
	holderToken string,
	additional time.Duration) (time.Time, error) {

	if additional <= 0 {
		return time.Time{}, fmt.Errorf("extension must be positive")
	}

	now := m.clock.Now()

	seats, err := m.ledger.GetSeatsByHolder(ctx, holderToken)
	if err != nil {
		return time.Time{}, err
	}

	if len(seats) == 0 {
		return time.Time{}, domain.ErrHoldNotFound
	}

	for _, seat := range seats {
		if seat.HoldExpired(now) {
			return time.Time{}, domain.ErrHoldExpired
		}
	}

	expiresAt := seats[0].HoldExpiresAt.Add(additional)
	if ceiling := now.Add(MaxHoldDuration); expiresAt.After(ceiling) {
		expiresAt = ceiling
	}

	_, err = m.ledger.ExtendHold(ctx, holderToken, now, expiresAt)
	if err != nil {
		return time.Time{}, err
	}

	return expiresAt, nil
}

// Release returns every seat under the token to AVAILABLE. Releasing an
// already-released or expired hold is a no-op success, so storefront "back"
// buttons and retried deletes cannot fail.
func (m *HoldManager) Release(ctx context.Context, holderToken string) error {
	if holderToken == "" {
		return domain.ErrHoldNotFound
	}

	_, err := m.ledger.ReleaseHold(ctx, holderToken)

	return err
}

// ClampHoldDuration bounds a requested hold duration to the permitted range.
func ClampHoldDuration(d time.Duration) time.Duration {
	if d < MinHoldDuration {
		return MinHoldDuration
	}
	if d > MaxHoldDuration {
		return MaxHoldDuration
	}
	return d
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrEditConflict    = errors.New("edit conflict")
	ErrHoldNotFound    = errors.New("hold not found")
	ErrHoldExpired     = errors.New("hold has expired")
	ErrChannelDisabled = errors.New("channel is disabled for this theater")
	ErrBookingExists   = errors.New("booking reference already exists")
	ErrShowingExists   = errors.New("showing is already provisioned")
)

// SeatUnavailableError reports a hold or claim that failed because one or
// more of the requested seats were not AVAILABLE. It names the conflicting
// seats so the caller can re-offer.
type SeatUnavailableError struct {
	ShowingID int64
	SeatIDs   []string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf(
		"seat(s) not available for showing %d: %s",
		e.ShowingID,
		strings.Join(e.SeatIDs, ", "),
	)
}

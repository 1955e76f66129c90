package domain

import "time"

// Hold is a view over seats sharing a holder token and expiry. It is not a
// durable entity of its own; the SeatRecord rows are the source of truth.
type Hold struct {
	HolderToken string
	ShowingID   int64
	Channel     Channel
	Seats       []SeatRecord
	ExpiresAt   time.Time
}

// SeatIDs returns the identifiers of the held seats.
func (h Hold) SeatIDs() []string {
	ids := make([]string, len(h.Seats))
	for i, seat := range h.Seats {
		ids[i] = seat.SeatID
	}
	return ids
}

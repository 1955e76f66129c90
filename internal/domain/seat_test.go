package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from SeatState
		to   SeatState
		want bool
	}{
		{"available to held", SeatAvailable, SeatHeld, true},
		{"available to blocked", SeatAvailable, SeatBlocked, true},
		{"available to sold is forbidden without a hold path check", SeatAvailable, SeatSold, false},
		{"held to sold", SeatHeld, SeatSold, true},
		{"held to available", SeatHeld, SeatAvailable, true},
		{"held to blocked", SeatHeld, SeatBlocked, true},
		{"blocked to available", SeatBlocked, SeatAvailable, true},
		{"blocked to held", SeatBlocked, SeatHeld, false},
		{"blocked to sold", SeatBlocked, SeatSold, false},
		{"sold to available", SeatSold, SeatAvailable, true},
		{"sold to held", SeatSold, SeatHeld, false},
		{"sold to blocked", SeatSold, SeatBlocked, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestHoldExpired(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		seat SeatRecord
		want bool
	}{
		{
			name: "held seat past deadline",
			seat: SeatRecord{State: SeatHeld, HoldExpiresAt: now.Add(-time.Second)},
			want: true,
		},
		{
			name: "held seat exactly at deadline",
			seat: SeatRecord{State: SeatHeld, HoldExpiresAt: now},
			want: true,
		},
		{
			name: "held seat before deadline",
			seat: SeatRecord{State: SeatHeld, HoldExpiresAt: now.Add(time.Minute)},
			want: false,
		},
		{
			name: "sold seat never expires",
			seat: SeatRecord{State: SeatSold, HoldExpiresAt: now.Add(-time.Hour)},
			want: false,
		},
		{
			name: "available seat never expires",
			seat: SeatRecord{State: SeatAvailable},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.seat.HoldExpired(now))
		})
	}
}

func TestValidChannel(t *testing.T) {
	for _, channel := range AllChannels {
		assert.True(t, ValidChannel(channel), "channel %s should be valid", channel)
	}

	assert.False(t, ValidChannel("KIOSK"))
	assert.False(t, ValidChannel(""))
	assert.False(t, ValidChannel("showsewa"))
}

func TestHoldSeatIDs(t *testing.T) {
	hold := Hold{
		Seats: []SeatRecord{
			{SeatID: "A1"},
			{SeatID: "A2"},
			{SeatID: "B5"},
		},
	}

	assert.Equal(t, []string{"A1", "A2", "B5"}, hold.SeatIDs())
}

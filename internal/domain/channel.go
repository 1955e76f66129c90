package domain

import (
	"context"
	"slices"
	"time"
)

// Channel is an independent point of sale claiming seats against the same
// ledger. SHOWSEWA is the primary web storefront; the rest report through
// the channel gateway.
type Channel string

const (
	ChannelShowsewa  Channel = "SHOWSEWA"
	ChannelBoxOffice Channel = "BOX_OFFICE"
	ChannelWalkIn    Channel = "WALK_IN"
	ChannelPartner   Channel = "PARTNER"
	ChannelPOS       Channel = "POS"
)

// AllChannels lists every known sales channel. New channels are added here
// and wired through the gateway, not subclassed per channel.
var AllChannels = []Channel{
	ChannelShowsewa,
	ChannelBoxOffice,
	ChannelWalkIn,
	ChannelPartner,
	ChannelPOS,
}

// ValidChannel reports whether the given value names a known channel.
func ValidChannel(c Channel) bool {
	return slices.Contains(AllChannels, c)
}

// TheaterChannelConfig controls which channels may sell for a theater and
// how often the reconciliation job runs. Mutated only by administrative
// action; read-mostly everywhere else and therefore cached with a TTL.
type TheaterChannelConfig struct {
	TheaterID           int64
	EnabledChannels     []Channel
	AutoSync            bool
	SyncIntervalMinutes int
	LastSyncAt          time.Time
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ChannelEnabled reports whether the given channel may currently sell for
// this theater.
func (c TheaterChannelConfig) ChannelEnabled(channel Channel) bool {
	return slices.Contains(c.EnabledChannels, channel)
}

// SyncDue reports whether an automatic reconciliation run is due.
func (c TheaterChannelConfig) SyncDue(now time.Time) bool {
	if !c.AutoSync {
		return false
	}
	if c.LastSyncAt.IsZero() {
		return true
	}
	interval := time.Duration(c.SyncIntervalMinutes) * time.Minute
	return !now.Before(c.LastSyncAt.Add(interval))
}

type ChannelConfigRepository interface {
	Get(ctx context.Context, theaterID int64) (*TheaterChannelConfig, error)
	Upsert(ctx context.Context, config *TheaterChannelConfig) error
	UpdateLastSync(ctx context.Context, theaterID int64, syncedAt time.Time) error
	ListAutoSync(ctx context.Context) ([]TheaterChannelConfig, error)
}

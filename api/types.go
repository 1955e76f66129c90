// Package api defines the request and response payloads of the seat
// inventory HTTP surface.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	Seats     []string  `json:"seats,omitempty"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type ProvisionSeat struct {
	SeatId   string          `json:"seatId" validate:"required"`
	Category string          `json:"category" validate:"required"`
	Price    decimal.Decimal `json:"price"`
}

type ProvisionShowingRequest struct {
	ShowingId int64           `json:"showingId" validate:"required,gt=0"`
	TheaterId int64           `json:"theaterId" validate:"required,gt=0"`
	Screen    string          `json:"screen"`
	StartsAt  time.Time       `json:"startsAt" validate:"required"`
	Seats     []ProvisionSeat `json:"seats" validate:"required,min=1,dive"`
}

type CreateHoldRequest struct {
	SeatIdList          []string `json:"seatIdList" validate:"required,min=1,dive,required"`
	Channel             string   `json:"channel" validate:"required,channel"`
	HoldDurationSeconds int      `json:"holdDurationSeconds" validate:"omitempty,gt=0"`
}

type HoldResponse struct {
	HolderToken string    `json:"holderToken"`
	ShowingId   int64     `json:"showingId"`
	Channel     string    `json:"channel"`
	Seats       []string  `json:"seats"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ExtendHoldRequest struct {
	AdditionalSeconds int `json:"additionalSeconds" validate:"required,gt=0"`
}

type ExtendHoldResponse struct {
	HolderToken string    `json:"holderToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ConfirmHoldRequest struct {
	BookingReference string `json:"bookingReference" validate:"required"`
	Channel          string `json:"channel" validate:"required,channel"`
}

type BookingResponse struct {
	BookingReference string    `json:"bookingReference"`
	Channel          string    `json:"channel"`
	ShowingId        int64     `json:"showingId"`
	Seats            []string  `json:"seats"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}

type LedgerSeat struct {
	SeatId           string          `json:"seatId"`
	State            string          `json:"state"`
	Category         string          `json:"category"`
	Price            decimal.Decimal `json:"price"`
	Version          int64           `json:"version"`
	HoldExpiresAt    *time.Time      `json:"holdExpiresAt,omitempty"`
	Channel          string          `json:"channel,omitempty"`
	BookingReference string          `json:"bookingReference,omitempty"`
}

type LedgerSnapshotResponse struct {
	ShowingId int64        `json:"showingId"`
	Seats     []LedgerSeat `json:"seats"`
	Available int          `json:"available"`
	Held      int          `json:"held"`
	Sold      int          `json:"sold"`
	Blocked   int          `json:"blocked"`
}

type ChannelClaimRequest struct {
	ShowingId int64    `json:"showingId" validate:"required,gt=0"`
	SeatIds   []string `json:"seatIds" validate:"required,min=1,dive,required"`
	Reference string   `json:"reference" validate:"required"`
	// Interactive claims go through a reserve+confirm pair; after-the-fact
	// reports claim seats directly.
	Interactive bool `json:"interactive"`
}

type SeatSelectionRequest struct {
	SeatIds []string `json:"seatIds" validate:"required,min=1,dive,required"`
}

type ChannelConfigRequest struct {
	EnabledChannels     []string `json:"enabledChannels" validate:"required,dive,channel"`
	AutoSync            bool     `json:"autoSync"`
	SyncIntervalMinutes int      `json:"syncIntervalMinutes" validate:"required,gte=1,lte=1440"`
}

type ChannelConfigResponse struct {
	TheaterId           int64      `json:"theaterId"`
	EnabledChannels     []string   `json:"enabledChannels"`
	AutoSync            bool       `json:"autoSync"`
	SyncIntervalMinutes int        `json:"syncIntervalMinutes"`
	LastSyncAt          *time.Time `json:"lastSyncAt,omitempty"`
}

type Conflict struct {
	Id               string     `json:"id"`
	ShowingId        int64      `json:"showingId"`
	SeatId           string     `json:"seatId"`
	Channel          string     `json:"channel"`
	LedgerReference  string     `json:"ledgerReference,omitempty"`
	ChannelReference string     `json:"channelReference"`
	Detail           string     `json:"detail"`
	DetectedAt       time.Time  `json:"detectedAt"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
}

type ConflictListResponse struct {
	TheaterId int64      `json:"theaterId"`
	Conflicts []Conflict `json:"conflicts"`
}

type SyncStatusResponse struct {
	TheaterId        int64      `json:"theaterId"`
	EnabledChannels  []string   `json:"enabledChannels"`
	AutoSync         bool       `json:"autoSync"`
	LastSyncAt       *time.Time `json:"lastSyncAt,omitempty"`
	PendingConflicts int        `json:"pendingConflicts"`
}

type SyncReportResponse struct {
	TheaterId int64     `json:"theaterId"`
	Showings  int       `json:"showings"`
	Matched   int       `json:"matched"`
	Applied   int       `json:"applied"`
	Conflicts int       `json:"conflicts"`
	SyncedAt  time.Time `json:"syncedAt"`
}

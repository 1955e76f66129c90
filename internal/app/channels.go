package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/showsewa/seat-inventory/api"
	"github.com/showsewa/seat-inventory/internal/domain"
	"github.com/showsewa/seat-inventory/internal/inventory"
)

// ChannelClaimHandler records a sale originating outside the storefront.
// Interactive channels (a box-office operator at a terminal) go through a
// reserve+confirm pair; after-the-fact channels claim the seats directly.
func (app *application) ChannelClaimHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	channel := domain.Channel(chi.URLParam(r, "channel"))
	if !domain.ValidChannel(channel) {
		app.badRequestResponse(w, r, fmt.Errorf("unknown channel: %s", channel))
		return
	}

	var input api.ChannelClaimRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	claim := inventory.ChannelClaim{
		Channel:   channel,
		ShowingID: input.ShowingId,
		SeatIDs:   input.SeatIds,
		Reference: input.Reference,
	}

	var booking *domain.ChannelBooking

	if input.Interactive {
		booking, err = app.gateway.Sell(r.Context(), claim)
	} else {
		booking, err = app.gateway.Claim(r.Context(), claim)
	}

	if err != nil {
		logger.Warn(
			"channel claim rejected",
			"channel", channel,
			"showing_id", input.ShowingId,
			"reference", input.Reference,
			"error", err,
		)
		app.transitionErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toAPIBooking(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetChannelConfigHandler(w http.ResponseWriter, r *http.Request) {
	theaterID, err := app.readIDParam(r, "theaterId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	config, err := app.configRepo.Get(r.Context(), theaterID)
	if err != nil {
		app.transitionErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toAPIChannelConfig(config), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// UpsertChannelConfigHandler is the administrative write path for per-theater
// channel enablement and sync settings. The cache entry is dropped so new
// flags apply to the next claim immediately.
func (app *application) UpsertChannelConfigHandler(w http.ResponseWriter, r *http.Request) {
	theaterID, err := app.readIDParam(r, "theaterId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.ChannelConfigRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	config, err := app.configRepo.Get(r.Context(), theaterID)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			app.serverErrorResponse(w, r, err)
			return
		}
		config = &domain.TheaterChannelConfig{TheaterID: theaterID}
	}

	channels := make([]domain.Channel, len(input.EnabledChannels))
	for i, name := range input.EnabledChannels {
		channels[i] = domain.Channel(name)
	}

	config.EnabledChannels = channels
	config.AutoSync = input.AutoSync
	config.SyncIntervalMinutes = input.SyncIntervalMinutes

	err = app.configRepo.Upsert(r.Context(), config)
	if err != nil {
		app.transitionErrorResponse(w, r, err)
		return
	}

	app.configCache.Invalidate(r.Context(), theaterID)

	err = app.writeJSON(w, http.StatusOK, toAPIChannelConfig(config), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// TriggerReconciliationHandler starts a synchronous reconciliation pass for
// one theater, regardless of its autoSync setting.
func (app *application) TriggerReconciliationHandler(w http.ResponseWriter, r *http.Request) {
	theaterID, err := app.readIDParam(r, "theaterId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	report, err := app.reconciler.SyncTheater(r.Context(), theaterID)
	if err != nil {
		app.transitionErrorResponse(w, r, err)
		return
	}

	resp := api.SyncReportResponse{
		TheaterId: report.TheaterID,
		Showings:  report.Showings,
		Matched:   report.Matched,
		Applied:   report.Applied,
		Conflicts: report.Conflicts,
		SyncedAt:  report.SyncedAt,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) ListConflictsHandler(w http.ResponseWriter, r *http.Request) {
	theaterID, err := app.readIDParam(r, "theaterId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	conflicts, err := app.conflictRepo.ListOpenByTheater(r.Context(), theaterID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.ConflictListResponse{
		TheaterId: theaterID,
		Conflicts: make([]api.Conflict, 0, len(conflicts)),
	}

	for _, conflict := range conflicts {
		resp.Conflicts = append(resp.Conflicts, api.Conflict{
			Id:               conflict.ID,
			ShowingId:        conflict.ShowingID,
			SeatId:           conflict.SeatID,
			Channel:          string(conflict.Channel),
			LedgerReference:  conflict.LedgerReference,
			ChannelReference: conflict.ChannelReference,
			Detail:           conflict.Detail,
			DetectedAt:       conflict.DetectedAt,
		})
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetSyncStatusHandler(w http.ResponseWriter, r *http.Request) {
	theaterID, err := app.readIDParam(r, "theaterId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	config, err := app.configRepo.Get(r.Context(), theaterID)
	if err != nil {
		app.transitionErrorResponse(w, r, err)
		return
	}

	conflicts, err := app.conflictRepo.ListOpenByTheater(r.Context(), theaterID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.SyncStatusResponse{
		TheaterId:        theaterID,
		EnabledChannels:  channelNames(config.EnabledChannels),
		AutoSync:         config.AutoSync,
		LastSyncAt:       optionalTime(config.LastSyncAt),
		PendingConflicts: len(conflicts),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toAPIChannelConfig(config *domain.TheaterChannelConfig) api.ChannelConfigResponse {
	return api.ChannelConfigResponse{
		TheaterId:           config.TheaterID,
		EnabledChannels:     channelNames(config.EnabledChannels),
		AutoSync:            config.AutoSync,
		SyncIntervalMinutes: config.SyncIntervalMinutes,
		LastSyncAt:          optionalTime(config.LastSyncAt),
	}
}

func channelNames(channels []domain.Channel) []string {
	names := make([]string, len(channels))
	for i, channel := range channels {
		names[i] = string(channel)
	}
	return names
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() || t.Unix() == 0 {
		return nil
	}
	return &t
}

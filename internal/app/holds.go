package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/showsewa/seat-inventory/api"
	"github.com/showsewa/seat-inventory/internal/domain"
)

func (app *application) CreateHoldHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	showingID, err := app.readIDParam(r, "showingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.CreateHoldRequest

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

	duration := time.Duration(input.HoldDurationSeconds) * time.Second

	hold, err := app.holds.Reserve(r.Context(), showingID, input.SeatIdList, domain.Channel(input.Channel), duration)
	if err != nil {
		logger.Warn("hold request rejected", "showing_id", showingID, "error", err)
		app.transitionErrorResponse(w, r, err)
		return
	}

	resp := api.HoldResponse{
		HolderToken: hold.HolderToken,
		ShowingId:   hold.ShowingID,
		Channel:     string(hold.Channel),
		Seats:       hold.SeatIDs(),
		ExpiresAt:   hold.ExpiresAt,
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) ExtendHoldHandler(w http.ResponseWriter, r *http.Request) {
	holderToken := chi.URLParam(r, "holderToken")

	var input api.ExtendHoldRequest

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

	expiresAt, err := app.holds.Extend(r.Context(), holderToken, time.Duration(input.AdditionalSeconds)*time.Second)
	if err != nil {
		app.transitionErrorResponse(w, r, err)
		return
	}

	resp := api.ExtendHoldResponse{
		HolderToken: holderToken,
		ExpiresAt:   expiresAt,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) ReleaseHoldHandler(w http.ResponseWriter, r *http.Request) {
	holderToken := chi.URLParam(r, "holderToken")

	err := app.holds.Release(r.Context(), holderToken)
	if err != nil {
		app.transitionErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) ConfirmHoldHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	holderToken := chi.URLParam(r, "holderToken")

	var input api.ConfirmHoldRequest

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

	booking, err := app.confirms.Confirm(r.Context(), holderToken, input.BookingReference, domain.Channel(input.Channel))
	if err != nil {
		logger.Warn(
			"confirm rejected",
			"holder_token", holderToken,
			"booking_reference", input.BookingReference,
			"error", err,
		)
		app.transitionErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toAPIBooking(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) CancelSaleHandler(w http.ResponseWriter, r *http.Request) {
	bookingReference := chi.URLParam(r, "bookingReference")
	if bookingReference == "" {
		app.notFoundResponse(w, r)
		return
	}

	booking, err := app.confirms.CancelSale(r.Context(), bookingReference)
	if err != nil {
		app.transitionErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toAPIBooking(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toAPIBooking(booking *domain.ChannelBooking) api.BookingResponse {
	return api.BookingResponse{
		BookingReference: booking.BookingReference,
		Channel:          string(booking.Channel),
		ShowingId:        booking.ShowingID,
		Seats:            booking.Seats,
		Status:           string(booking.Status),
		CreatedAt:        booking.CreatedAt,
	}
}

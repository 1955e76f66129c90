package app

import (
	"net/http"

	"github.com/showsewa/seat-inventory/api"
	"github.com/showsewa/seat-inventory/internal/domain"
)

// ProvisionShowingHandler creates the showing and its full seat map, every
// seat AVAILABLE. Called by catalog management when a showing goes on sale.
func (app *application) ProvisionShowingHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.ProvisionShowingRequest

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

	layout := make([]domain.SeatLayout, len(input.Seats))
	for i, seat := range input.Seats {
		layout[i] = domain.SeatLayout{
			SeatID:   seat.SeatId,
			Category: seat.Category,
			Price:    seat.Price,
		}
	}

	showing := domain.Showing{
		ID:        input.ShowingId,
		TheaterID: input.TheaterId,
		Screen:    input.Screen,
		StartsAt:  input.StartsAt,
	}

	err = app.ledgerRepo.ProvisionShowing(r.Context(), showing, layout)
	if err != nil {
		app.transitionErrorResponse(w, r, err)
		return
	}

	logger.Info("showing provisioned", "showing_id", input.ShowingId, "seats", len(layout))

	w.WriteHeader(http.StatusCreated)
}

func (app *application) GetLedgerSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	showingID, err := app.readIDParam(r, "showingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seats, err := app.ledgerRepo.GetSeats(r.Context(), showingID)
	if err != nil {
		app.transitionErrorResponse(w, r, err)
		return
	}

	resp := api.LedgerSnapshotResponse{
		ShowingId: showingID,
		Seats:     make([]api.LedgerSeat, 0, len(seats)),
	}

	for _, seat := range seats {
		ledgerSeat := api.LedgerSeat{
			SeatId:   seat.SeatID,
			State:    string(seat.State),
			Category: seat.Category,
			Price:    seat.Price,
			Version:  seat.Version,
			Channel:  string(seat.Channel),
		}

		switch seat.State {
		case domain.SeatAvailable:
			resp.Available++
		case domain.SeatHeld:
			resp.Held++
			expiresAt := seat.HoldExpiresAt
			ledgerSeat.HoldExpiresAt = &expiresAt
		case domain.SeatSold:
			resp.Sold++
			ledgerSeat.BookingReference = seat.BookingReference
		case domain.SeatBlocked:
			resp.Blocked++
		}

		resp.Seats = append(resp.Seats, ledgerSeat)
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) BlockSeatsHandler(w http.ResponseWriter, r *http.Request) {
	app.setSeatsBlocked(w, r, true)
}

func (app *application) UnblockSeatsHandler(w http.ResponseWriter, r *http.Request) {
	app.setSeatsBlocked(w, r, false)
}

func (app *application) setSeatsBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	showingID, err := app.readIDParam(r, "showingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.SeatSelectionRequest

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

	if blocked {
		err = app.ledgerRepo.BlockSeats(r.Context(), showingID, input.SeatIds)
	} else {
		err = app.ledgerRepo.UnblockSeats(r.Context(), showingID, input.SeatIds)
	}

	if err != nil {
		app.transitionErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

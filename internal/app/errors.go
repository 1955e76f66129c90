package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/showsewa/seat-inventory/api"
	"github.com/showsewa/seat-inventory/internal/domain"
	appvalidator "github.com/showsewa/seat-inventory/internal/validator"
)

const (
	ErrInternalServer  = "The server encountered a problem and could not process your request"
	ErrSeatUnavailable = "One or more of the selected seats are no longer available, please reselect"
	ErrHoldExpired     = "Your session expired, please restart checkout"
)

func (app *application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource not found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) editConflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusConflict, err.Error())
}

// seatUnavailableResponse keeps the user-facing reselect message while still
// naming the conflicting seats for the client.
func (app *application) seatUnavailableResponse(w http.ResponseWriter, r *http.Request, unavailable *domain.SeatUnavailableError) {
	resp := api.ErrorResponse{
		Message:   ErrSeatUnavailable,
		Seats:     unavailable.SeatIDs,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, http.StatusConflict, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) {
		app.serverErrorResponse(w, r, err)
		return
	}

	fieldErrors := make([]api.ValidationError, 0, len(validationErrors))

	for _, fieldError := range validationErrors {
		fieldErrors = append(fieldErrors, api.ValidationError{
			Field: fieldError.Field(),
			Issue: appvalidator.ValidationMessage(fieldError),
		})
	}

	resp := api.ValidationErrorResponse{
		Message:          "Validation failed",
		ValidationErrors: fieldErrors,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

// transitionErrorResponse maps the engine's error taxonomy onto HTTP statuses.
// Seat-transition errors are returned synchronously and never retried here;
// retry policy belongs to the caller.
func (app *application) transitionErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var unavailable *domain.SeatUnavailableError

	switch {
	case errors.As(err, &unavailable):
		app.seatUnavailableResponse(w, r, unavailable)
	case errors.Is(err, domain.ErrEditConflict):
		app.editConflictResponse(w, r, err)
	case errors.Is(err, domain.ErrHoldNotFound):
		app.errorResponse(w, r, http.StatusNotFound, "The hold was not found, please restart checkout")
	case errors.Is(err, domain.ErrHoldExpired):
		app.errorResponse(w, r, http.StatusGone, ErrHoldExpired)
	case errors.Is(err, domain.ErrChannelDisabled):
		app.errorResponse(w, r, http.StatusForbidden, "This sales channel is disabled for the theater")
	case errors.Is(err, domain.ErrBookingExists):
		app.errorResponse(w, r, http.StatusConflict, "The booking reference is already in use")
	case errors.Is(err, domain.ErrShowingExists):
		app.errorResponse(w, r, http.StatusConflict, "The showing is already provisioned")
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

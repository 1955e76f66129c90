package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware("seat-inventory-api", otelchi.WithChiRoutes(r)))
	r.Use(app.recoverPanic)

	r.Get("/health", app.GetHealth)

	r.Route("/showings", func(r chi.Router) {
		r.Post("/", app.ProvisionShowingHandler)
		r.Get("/{showingId}/seats", app.GetLedgerSnapshotHandler)
		r.Post("/{showingId}/holds", app.CreateHoldHandler)
		r.Post("/{showingId}/seats/block", app.BlockSeatsHandler)
		r.Post("/{showingId}/seats/unblock", app.UnblockSeatsHandler)
	})

	r.Route("/holds/{holderToken}", func(r chi.Router) {
		r.Patch("/", app.ExtendHoldHandler)
		r.Delete("/", app.ReleaseHoldHandler)
		r.Post("/confirm", app.ConfirmHoldHandler)
	})

	r.Delete("/bookings/{bookingReference}", app.CancelSaleHandler)

	r.Post("/channels/{channel}/claims", app.ChannelClaimHandler)

	r.Route("/theaters/{theaterId}", func(r chi.Router) {
		r.Get("/channel-config", app.GetChannelConfigHandler)
		r.Put("/channel-config", app.UpsertChannelConfigHandler)
		r.Post("/reconciliation", app.TriggerReconciliationHandler)
		r.Get("/conflicts", app.ListConflictsHandler)
		r.Get("/sync-status", app.GetSyncStatusHandler)
	})

	return r
}

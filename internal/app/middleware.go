package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// contextGetLogger returns a request-scoped logger carrying the request ID.
func (app *application) contextGetLogger(r *http.Request) *slog.Logger {
	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		return app.logger
	}

	return app.logger.With("request_id", requestID)
}

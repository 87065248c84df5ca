package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the full HTTP surface. Either handler may be nil, in
// which case its routes are simply not registered.
func NewRouter(ops *OpsHandler, events *EventHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if ops != nil {
		ops.registerRoutes(r)
	}
	if events != nil {
		events.registerRoutes(r)
	}
	return r
}

package zones

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CiviMap/CM-Backend/internal/hostauth"
	"github.com/CiviMap/CM-Backend/internal/middleware"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := hostauth.SessionInfo{}

	// Public routes
	r.Get("/api/sections", GetSections)
	r.Get("/api/boundary", GetBoundary)
	r.Get("/api/resolve", ResolvePoint)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Use(middleware.AdminMiddleware(sessionFetcher))
		r.Post("/api/boundary/recalculate", RecalculateBoundaryHandler)
		r.Post("/api/repair", RepairGapsHandler)
	})

	return r
}

package handler

import (
	"github.com/campushq/campus-events/internal/auth"
	"github.com/campushq/campus-events/internal/config"
	"github.com/campushq/campus-events/internal/model"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *AuthHandler
	Events  *EventHandler
	Users   *UserHandler
	Reports *ReportHandler
}

// NewRouter assembles the middleware stack and the route tree.
func NewRouter(cfg *config.Config, authSvc *auth.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)                  // structured access log
	r.Use(CORS)
	if cfg.RateLimit.Enabled {
		r.Use(RateLimit(cfg.RateLimit))
	}

	// Public surface: health, login, signup.
	r.Get("/health", HealthCheck)
	r.Post("/auth/login", h.Auth.Login)
	r.Post("/users", h.Users.Signup)

	// Everything else requires a valid token.
	r.Group(func(r chi.Router) {
		r.Use(authSvc.Authenticator)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.Events.ListEvents)
			r.Get("/search", h.Events.SearchEvents)
			r.Post("/", h.Events.CreateEvent)
			r.Post("/bulk", h.Events.BulkImport)
			r.Get("/{id}", h.Events.GetEvent)
			r.Put("/{id}", h.Events.UpdateEvent)
			r.Delete("/{id}", h.Events.DeleteEvent)
			r.Post("/{id}/cancel", h.Events.CancelEvent)
			r.Post("/{id}/complete", h.Events.CompleteEvent)
			r.Get("/{id}/availability", h.Events.Availability)
			r.Post("/{id}/register", h.Events.Register)
			r.Delete("/{id}/register", h.Events.Unregister)
			r.Get("/{id}/registrations", h.Events.ListRegistrations)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Users.ListUsers)
			r.Get("/{id}", h.Users.GetUser)
			r.Put("/{id}", h.Users.UpdateUser)
			r.Delete("/{id}", h.Users.DeleteUser)
			r.Get("/{id}/events", h.Users.UserEvents)
		})

		// Accounts with staff roles are created here, not via signup.
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequirePermission(model.PermManageUsers))
			r.Post("/users", h.Users.CreateUser)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(auth.RequirePermission(model.PermViewReports))
			r.Get("/statistics", h.Reports.Statistics)
			r.Get("/popular", h.Reports.PopularEvents)
			r.Get("/capacity", h.Reports.CapacityAnalysis)
			r.Get("/attendance.csv", h.Reports.AttendanceCSV)
			r.Get("/events.csv", h.Reports.EventsCSV)
		})
	})

	return r
}

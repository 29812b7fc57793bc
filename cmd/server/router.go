package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vportnov/contacts-api/internal/api"
	apiMiddleware "github.com/vportnov/contacts-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	contactHandler := api.NewContactHandler(app.contactStore, app.logger)

	// The list endpoint carries its own per-user rate limit
	listRateLimiter := apiMiddleware.NewRateLimiter(
		app.config.Server.ListRateLimit,
		app.listRateWindow(),
	)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected contact endpoints
		r.Route("/contacts", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/create", contactHandler.CreateContact)
			r.With(listRateLimiter.Limit).Get("/read_contacts", contactHandler.ReadContacts)
			r.Get("/read_contact/{id}", contactHandler.ReadContact)
			r.Put("/update_contact/{id}", contactHandler.UpdateContact)
			r.Delete("/delete_contact/{id}", contactHandler.DeleteContact)
			r.Get("/search", contactHandler.SearchContacts)
			r.Get("/birthdays", contactHandler.UpcomingBirthdays)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

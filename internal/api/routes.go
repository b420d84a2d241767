package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	// Public verification page lookup - the URL QR codes point at
	r.Get("/verify/{number}", h.VerifyCertificate)

	r.Route("/api", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", h.GetEvent)
				r.Put("/", h.UpdateEvent)
				r.Delete("/", h.DeleteEvent)

				r.Route("/certificates", func(r chi.Router) {
					r.Get("/", h.ListCertificates)
					r.Post("/", h.CreateCertificate)
					r.Post("/import", h.ImportParticipants)
					r.Post("/generate", h.GenerateCertificates)
				})
			})
		})

		r.Get("/certificates/{id}", h.GetCertificate)
		r.Delete("/certificates/{id}", h.DeleteCertificate)

		r.Get("/templates", h.ListTemplates)
		r.Get("/progress/{jobID}", h.GetProgress)
	})

	return r
}

package web

import (
	"github.com/Karshmistry/CrimAII/internal/auth"
	"github.com/Karshmistry/CrimAII/internal/web/handlers"
	"github.com/Karshmistry/CrimAII/internal/web/middleware"
	"github.com/go-chi/chi/v5"
)

func (s *Server) setupRoutes() {
	d := s.deps

	// Create handlers
	healthHandler := handlers.NewHealthHandler(d.Store)
	authHandler := handlers.NewAuthHandler(d.Store, d.Tokens, s.config.Auth.AllowRoleSignup)
	usersHandler := handlers.NewUsersHandler(d.Store)
	adminHandler := handlers.NewAdminHandler(d.Store, d.Store, d.Cases)
	casesHandler := handlers.NewCasesHandler(d.Cases, d.Gallery)
	recognizeHandler := handlers.NewRecognizeHandler(d.Matcher, s.config.Web.MaxScans, s.config.Web.MaxProbeSize, "")
	detectionsHandler := handlers.NewDetectionsHandler(d.Store)

	loginLimiter := auth.NewRateLimiter(s.config.Auth.LoginRatePerMinute)

	s.router.Get("/", healthHandler.Index)
	s.router.Handle("/metrics", d.Metrics.Handler())

	// Case registry and recognition are open, as the dashboard client expects
	s.router.Post("/add_criminal", casesHandler.Add)
	s.router.Post("/recognize", recognizeHandler.Recognize)
	s.router.Get("/faces_db/{filename}", casesHandler.Image)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/cases", casesHandler.List)
		r.Get("/detections", detectionsHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(loginLimiter))
			r.Post("/auth/signup", authHandler.Signup)
			r.Post("/auth/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Tokens))

			r.Get("/users", usersHandler.Get)
			r.Put("/users/update", usersHandler.Update)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(d.Store))

				r.Get("/users", adminHandler.ListUsers)
				r.Get("/detections", adminHandler.ListDetections)
				r.Delete("/delete_user/{id}", adminHandler.DeleteUser)
				r.Delete("/delete_detection/{id}", adminHandler.DeleteDetection)
				r.Delete("/cases/{filename}", adminHandler.DeleteCase)
			})
		})
	})
}

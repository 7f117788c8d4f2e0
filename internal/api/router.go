/**
 * @description
 * This file sets up the HTTP router. It defines the API endpoints,
 * associates them with their handlers, and applies middleware for logging,
 * panic recovery, CORS, timeouts and authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/skrapar556-ux/royalebank/internal/auth"
)

// Routes creates and returns the router for the banking service.
func Routes(h *Handlers, tokens *auth.TokenAuthority, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/verify-otp", h.VerifyOTP)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
		})

		// Endpoints below require a verified session.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokens))

			r.Route("/user", func(r chi.Router) {
				r.Get("/balance", h.Balance)
				r.Post("/transfer", h.Transfer)
				r.Get("/transactions", h.Transactions)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(AdminOnly)

				r.Get("/users", h.AdminListUsers)
				r.Post("/users", h.AdminCreateUser)
				r.Patch("/users/{id}", h.AdminPatchBalance)
				r.Delete("/users/{id}", h.AdminDeleteUser)
				r.Get("/transactions", h.AdminListTransactions)
			})
		})
	})

	return r
}

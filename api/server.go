/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a frontend

ROUTE GROUPS:
  /api/budgets/*        Budgets, their entities, and their transactions
  /api/transactions/*   Single-transaction operations (get/update/delete/restore)
  /api/seed             Demo data (dev only)

SECURITY NOTE:
  No authentication middleware. All endpoints are public; the X-Actor
  header is trusted as-is for audit fields.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", h.ListBudgets)
			r.Post("/", h.CreateBudget)
			r.Get("/{id}", h.GetBudget)

			r.Get("/{id}/envelopes", h.ListEnvelopes)
			r.Post("/{id}/envelopes", h.CreateEnvelope)
			r.Get("/{id}/payees", h.ListPayees)
			r.Post("/{id}/payees", h.CreatePayee)
			r.Get("/{id}/income-sources", h.ListIncomeSources)
			r.Post("/{id}/income-sources", h.CreateIncomeSource)

			r.Get("/{id}/transactions", h.ListTransactions)
			r.Post("/{id}/transactions", h.CreateTransaction)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/{id}", h.GetTransaction)
			r.Patch("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.SoftDeleteTransaction)
			r.Post("/{id}/restore", h.RestoreTransaction)
		})

		// Demo data (dev only)
		r.Post("/seed", h.LoadSeed)
	})

	return r
}

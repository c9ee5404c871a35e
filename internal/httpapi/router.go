// Package httpapi is the JSON transport over the ledger, the dashboard and accounts.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"flowstate/internal/service"
)

// Handler binds HTTP routes to the services.
type Handler struct {
	accounts  *service.AccountService
	ledger    *service.LedgerService
	dashboard *service.DashboardService
}

func NewHandler(accounts *service.AccountService, ledger *service.LedgerService, dashboard *service.DashboardService) *Handler {
	return &Handler{accounts: accounts, ledger: ledger, dashboard: dashboard}
}

// NewRouter registers every route and the middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", h.healthz)
	r.Post("/auth/register", h.register)
	r.Post("/auth/token", h.token)

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", h.createCategory)
			r.Get("/", h.listCategories)
			r.Put("/{category_id}", h.updateCategory)
			r.Delete("/{category_id}", h.deleteCategory)
		})
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.createSession)
			r.Get("/", h.listSessions)
			r.Put("/{session_id}", h.updateSession)
		})
		r.Get("/analytics/dashboard", h.getDashboard)
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

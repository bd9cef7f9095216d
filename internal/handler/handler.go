package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dealglance/lineitems-backend/internal/config"
	mid "github.com/dealglance/lineitems-backend/internal/middleware"
	"github.com/dealglance/lineitems-backend/internal/service"
	authpkg "github.com/dealglance/lineitems-backend/pkg/auth"
)

// Handler groups dependencies for route handlers.
type Handler struct {
	cfg     *config.Config
	auth    authpkg.Authenticator
	manager *service.AuthManager
	fetcher *service.LineItemFetcher
	states  *service.StateStore
}

// NewRouter wires the application routes.
func NewRouter(cfg *config.Config, a authpkg.Authenticator, manager *service.AuthManager, fetcher *service.LineItemFetcher) http.Handler {
	h := &Handler{
		cfg:     cfg,
		auth:    a,
		manager: manager,
		fetcher: fetcher,
		states:  service.NewStateStore(),
	}
	r := chi.NewRouter()

	r.Get("/health", h.health)

	// OAuth flow
	r.Get("/oauth/start", h.oauthStart)
	r.Get("/oauth/callback", h.oauthCallback)
	r.Get("/connected", h.connected)

	// webhook endpoint authenticates via signature, not session
	r.Post("/webhooks/hubspot", h.webhook)

	// widget API (requires a resolved portal)
	r.Group(func(r chi.Router) {
		r.Use(mid.RequirePortal(h.auth))
		r.Get("/api/company/{companyID}/line-items", h.companyLineItems)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

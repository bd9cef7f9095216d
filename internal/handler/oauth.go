package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/dealglance/lineitems-backend/internal/service"
	"github.com/dealglance/lineitems-backend/internal/utils"
	authpkg "github.com/dealglance/lineitems-backend/pkg/auth"
)

const (
	stateTTL   = 5 * time.Minute
	sessionTTL = 12 * time.Hour
)

// oauthStart redirects to the HubSpot authorize URL.
func (h *Handler) oauthStart(w http.ResponseWriter, r *http.Request) {
	state, err := service.GenerateState(16)
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}
	h.states.Create(state, stateTTL)
	http.Redirect(w, r, h.manager.AuthorizeURL(state), http.StatusFound)
}

// oauthCallback exchanges the code for tokens, stores the pair keyed
// by the discovered portal, issues the session cookie and redirects to
// the success page.
func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if code == "" {
		writeError(w, http.StatusBadRequest, "no authorization code provided")
		return
	}
	if state == "" || !h.states.Consume(state) {
		writeError(w, http.StatusBadRequest, "invalid or expired state")
		return
	}

	portalID, _, err := h.manager.CompleteAuthorization(ctx, code)
	if err != nil {
		log.Printf("oauthCallback: authorization failed: %v", err)
		writeError(w, http.StatusBadRequest, "failed to exchange code for tokens")
		return
	}

	token, err := authpkg.IssueSession(h.cfg.SessionSecret, portalID, sessionTTL)
	if err != nil {
		log.Printf("oauthCallback: issue session: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}
	utils.SetCookie(w, r, "session_token", token, time.Now().Add(sessionTTL))

	http.Redirect(w, r, "/connected", http.StatusSeeOther)
}

// connected is the post-authorization success page.
func (h *Handler) connected(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<!doctype html>
<html>
  <head><title>Connected</title></head>
  <body>
    <h1>HubSpot connected</h1>
    <p>You can close this window and return to the CRM card.</p>
  </body>
</html>
`))
}

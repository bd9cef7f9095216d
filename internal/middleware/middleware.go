package middleware

import (
	"context"
	"net/http"

	authpkg "github.com/dealglance/lineitems-backend/pkg/auth"
)

type contextKey string

const (
	// CtxPortalID stores the resolved HubSpot portal id (string).
	CtxPortalID contextKey = "portalID"
	// CtxClaims stores the session token claims (map[string]interface{}).
	CtxClaims contextKey = "claims"
)

// PortalID returns the portal id resolved for the request, if any.
func PortalID(r *http.Request) string {
	v, _ := r.Context().Value(CtxPortalID).(string)
	return v
}

// RequirePortal returns middleware that resolves the calling portal:
// either a valid session token (Authorization header or session
// cookie) carrying the portal_id claim, or the X-HubSpot-Portal-Id
// header the embedded card sends. Requests with neither are rejected
// with 401.
func RequirePortal(auth authpkg.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				if c, err := r.Cookie("session_token"); err == nil && c.Value != "" {
					r.Header.Set("Authorization", "Bearer "+c.Value)
				}
			}

			var portalID string
			claims, ok := auth.Authenticate(r)
			if ok {
				if v, ok := claims["portal_id"].(string); ok && v != "" {
					portalID = v
				}
			}
			if portalID == "" {
				portalID = r.Header.Get("X-HubSpot-Portal-Id")
			}
			if portalID == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = context.WithValue(ctx, CtxPortalID, portalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

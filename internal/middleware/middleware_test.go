package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authpkg "github.com/dealglance/lineitems-backend/pkg/auth"
)

func portalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(PortalID(r)))
	})
}

func TestRequirePortal_NoCredentials(t *testing.T) {
	h := RequirePortal(authpkg.NewJWT("secret"))(portalEcho())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequirePortal_SessionCookie(t *testing.T) {
	token, err := authpkg.IssueSession("secret", "123456", time.Hour)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	h := RequirePortal(authpkg.NewJWT("secret"))(portalEcho())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "123456" {
		t.Fatalf("expected portal from cookie, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequirePortal_HeaderFallback(t *testing.T) {
	h := RequirePortal(authpkg.NewJWT("secret"))(portalEcho())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-HubSpot-Portal-Id", "999")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "999" {
		t.Fatalf("expected portal from header, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequirePortal_InvalidTokenFallsThroughToHeader(t *testing.T) {
	badToken, err := authpkg.IssueSession("other-secret", "123456", time.Hour)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	h := RequirePortal(authpkg.NewJWT("secret"))(portalEcho())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+badToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token without header, got %d", rec.Code)
	}
}

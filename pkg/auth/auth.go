package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator is the minimal interface handlers depend on.
type Authenticator interface {
	// Authenticate returns the token claims and true when the request is
	// authenticated. Claims is a plain map so handlers don't need the
	// jwt dependency.
	Authenticate(r *http.Request) (claims map[string]interface{}, ok bool)
}

// NewJWT returns an Authenticator that validates HMAC-signed session
// tokens using the provided secret.
func NewJWT(secret string) Authenticator {
	return &jwtAuth{secret: []byte(secret)}
}

type jwtAuth struct {
	secret []byte
}

func (a *jwtAuth) Authenticate(r *http.Request) (map[string]interface{}, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, false
	}

	token, err := jwt.ParseWithClaims(parts[1], jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}

	out := make(map[string]interface{}, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out, true
}

// IssueSession signs a session token binding the widget session to a
// portal. The token carries the portal id claim and an expiry.
func IssueSession(secret, portalID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"portal_id": portalID,
		"iat":       time.Now().Unix(),
		"exp":       time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dealglance/lineitems-backend/internal/store"
	"github.com/dealglance/lineitems-backend/pkg/hubspot"
)

// Auth failure taxonomy. Handlers map these onto response codes.
var (
	// ErrNoSession: no token pair was ever established for the portal.
	ErrNoSession = errors.New("auth: no session established")
	// ErrRefreshRejected: the authorization server invalidated the
	// refresh token. Terminal until a new authorization completes.
	ErrRefreshRejected = errors.New("auth: refresh token rejected")
	// ErrInvalidCode: the authorization code exchange was rejected.
	ErrInvalidCode = errors.New("auth: invalid authorization code")
)

// refreshSkew refreshes slightly before the recorded expiry so a token
// handed to the fetcher does not expire mid-request.
const refreshSkew = time.Minute

// AuthConfig carries the OAuth app credentials.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// AuthManager owns the OAuth token lifecycle: authorization-code
// exchange, refresh-token renewal, and the stored pair per portal.
type AuthManager struct {
	cfg    AuthConfig
	client *http.Client
	tokens store.TokenStore

	// serializes refresh attempts so concurrent requests don't race a
	// single-use refresh token
	mu sync.Mutex
	// portals whose refresh token was rejected; they keep failing with
	// ErrRefreshRejected until a new authorization completes
	rejected map[string]struct{}
}

// NewAuthManager wires the manager to an HTTP client and token store.
func NewAuthManager(cfg AuthConfig, client *http.Client, tokens store.TokenStore) *AuthManager {
	return &AuthManager{cfg: cfg, client: client, tokens: tokens, rejected: make(map[string]struct{})}
}

// AuthorizeURL builds the authorization-code request URL. No side
// effects beyond URL construction.
func (m *AuthManager) AuthorizeURL(state string) string {
	return hubspot.BuildAuthURL(m.cfg.ClientID, m.cfg.RedirectURI, state)
}

// CompleteAuthorization exchanges an authorization code for a token
// pair, discovers the owning portal via token introspection, and
// stores the pair keyed by that portal id.
func (m *AuthManager) CompleteAuthorization(ctx context.Context, code string) (string, *store.TokenPair, error) {
	tr, err := hubspot.ExchangeCodeForToken(ctx, m.client, m.cfg.ClientID, m.cfg.ClientSecret, code, m.cfg.RedirectURI)
	if err != nil {
		if errors.Is(err, hubspot.ErrInvalidGrant) {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
		}
		return "", nil, fmt.Errorf("exchange code: %w", err)
	}

	info, err := hubspot.GetTokenInfo(ctx, m.client, tr.AccessToken)
	if err != nil {
		return "", nil, fmt.Errorf("introspect token: %w", err)
	}
	portalID := strconv.FormatInt(info.HubID, 10)

	pair := store.TokenPair{
		PortalID:     portalID,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(expirySeconds(tr.ExpiresIn)),
		Scope:        tr.Scope,
	}
	if err := m.tokens.Upsert(ctx, pair); err != nil {
		return "", nil, fmt.Errorf("persist token pair: %w", err)
	}
	m.mu.Lock()
	delete(m.rejected, portalID)
	m.mu.Unlock()
	return portalID, &pair, nil
}

// ValidToken returns the portal's access token, refreshing it once if
// it is expired or about to expire. A rejected refresh clears the
// stored pair and is surfaced as ErrRefreshRejected; the caller must
// restart authorization.
func (m *AuthManager) ValidToken(ctx context.Context, portalID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, bad := m.rejected[portalID]; bad {
		return "", ErrRefreshRejected
	}

	pair, err := m.tokens.Get(ctx, portalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("load token pair: %w", err)
	}
	if time.Until(pair.ExpiresAt) > refreshSkew {
		return pair.AccessToken, nil
	}

	tr, err := hubspot.RefreshToken(ctx, m.client, m.cfg.ClientID, m.cfg.ClientSecret, pair.RefreshToken)
	if err != nil {
		if errors.Is(err, hubspot.ErrInvalidGrant) {
			// refresh token is dead; clear the pair and remember the
			// rejection so subsequent calls fail fast until
			// re-authorization
			_ = m.tokens.Delete(ctx, portalID)
			m.rejected[portalID] = struct{}{}
			return "", fmt.Errorf("%w: %v", ErrRefreshRejected, err)
		}
		return "", fmt.Errorf("refresh token: %w", err)
	}

	refresh := tr.RefreshToken
	if refresh == "" {
		refresh = pair.RefreshToken
	}
	next := store.TokenPair{
		PortalID:     portalID,
		AccessToken:  tr.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(expirySeconds(tr.ExpiresIn)),
		Scope:        pair.Scope,
	}
	if err := m.tokens.Upsert(ctx, next); err != nil {
		return "", fmt.Errorf("persist refreshed pair: %w", err)
	}
	return next.AccessToken, nil
}

func expirySeconds(secs int64) time.Duration {
	if secs == 0 {
		secs = 1800
	}
	return time.Duration(secs) * time.Second
}

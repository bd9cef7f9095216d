package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Scopes requested during authorization. Read-only access to the three
// CRM object types the widget traverses.
const Scopes = "crm.objects.companies.read crm.objects.deals.read crm.objects.line_items.read"

// Sentinel errors for upstream responses handlers need to branch on.
var (
	// ErrInvalidGrant: the token endpoint rejected the code or refresh token.
	ErrInvalidGrant = errors.New("hubspot: invalid grant")
	// ErrUnauthorized: the API rejected the access token.
	ErrUnauthorized = errors.New("hubspot: unauthorized")
	// ErrNotFound: the requested CRM object does not exist.
	ErrNotFound = errors.New("hubspot: not found")
)

// TokenResponse represents token exchange/refresh result.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// TokenInfo is the introspection result for an access token. HubID is
// the portal the token was issued for.
type TokenInfo struct {
	HubID     int64  `json:"hub_id"`
	UserID    int64  `json:"user_id"`
	AppID     int64  `json:"app_id"`
	TokenType string `json:"token_type"`
}

// LineItem is one product/quantity/price record attached to a deal,
// flattened for the widget.
type LineItem struct {
	DealID    string  `json:"deal_id"`
	DealName  string  `json:"deal_name"`
	Name      string  `json:"line_item_name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Amount    float64 `json:"amount"`
}

// BuildAuthURL builds the HubSpot authorize URL.
func BuildAuthURL(clientID, redirectURI, state string) string {
	return fmt.Sprintf("https://app.hubspot.com/oauth/authorize?response_type=code&client_id=%s&redirect_uri=%s&scope=%s&state=%s",
		url.QueryEscape(clientID),
		url.QueryEscape(redirectURI),
		url.QueryEscape(Scopes),
		url.QueryEscape(state),
	)
}

// ExchangeCodeForToken exchanges an authorization code for tokens.
func ExchangeCodeForToken(ctx context.Context, httpClient *http.Client, clientID, clientSecret, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("redirect_uri", redirectURI)
	form.Set("code", code)
	return postTokenForm(ctx, httpClient, form)
}

// RefreshToken exchanges a refresh token for a new access token.
func RefreshToken(ctx context.Context, httpClient *http.Client, clientID, clientSecret, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("refresh_token", refreshToken)
	return postTokenForm(ctx, httpClient, form)
}

func postTokenForm(ctx context.Context, httpClient *http.Client, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.hubapi.com/oauth/v1/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// the token endpoint answers 4xx when the grant itself is bad
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, fmt.Errorf("%w: status=%d", ErrInvalidGrant, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token request failed: status=%d", resp.StatusCode)
	}
	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// GetTokenInfo introspects an access token and returns its metadata,
// in particular the portal (hub) it belongs to.
func GetTokenInfo(ctx context.Context, httpClient *http.Client, accessToken string) (*TokenInfo, error) {
	u := "https://api.hubapi.com/oauth/v1/access-tokens/" + url.PathEscape(accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode, "token introspection"); err != nil {
		return nil, err
	}
	var ti TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&ti); err != nil {
		return nil, err
	}
	return &ti, nil
}

// statusError maps a non-2xx status to the sentinel taxonomy.
func statusError(status int, op string) error {
	switch {
	case status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s: status=%d", ErrUnauthorized, op, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s: status=%d", ErrNotFound, op, status)
	default:
		return fmt.Errorf("%s failed: status=%d", op, status)
	}
}

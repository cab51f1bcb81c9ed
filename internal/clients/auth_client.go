package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// loginResponse mirrors the portal's POST /auth/login/ payload.
type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthClient signs in against the portal.
type AuthClient struct {
	base *BaseClient
}

// NewAuthClient returns client.
func NewAuthClient(baseURL string, httpClient HTTPDoer) *AuthClient {
	return &AuthClient{base: NewBaseClient(baseURL, httpClient)}
}

// Login exchanges credentials for an access token.
func (c *AuthClient) Login(ctx context.Context, email, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": email, "password": password})
	if err != nil {
		return "", err
	}
	status, body, err := c.base.Do(ctx, http.MethodPost, "/auth/login/", payload, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &APIError{Status: status, Detail: string(body)}
	}
	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("auth: decode login response: %w", err)
	}
	if resp.Access == "" {
		return "", errors.New("auth: login response missing access token")
	}
	return resp.Access, nil
}

const tokenExpiryLeeway = 30 * time.Second

// TokenSource holds the portal session context: signed in once, re-signed
// ahead of token expiry, and passed explicitly to every client call instead
// of living in ambient storage.
type TokenSource struct {
	auth     *AuthClient
	email    string
	password string
	clock    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenSource builds a source that logs in lazily on first use.
func NewTokenSource(auth *AuthClient, email, password string) *TokenSource {
	return &TokenSource{
		auth:     auth,
		email:    email,
		password: password,
		clock:    time.Now,
	}
}

// Token returns a valid portal token, logging in again when the cached one
// is missing or within the expiry leeway.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && (t.expires.IsZero() || t.clock().Before(t.expires.Add(-tokenExpiryLeeway))) {
		return t.token, nil
	}

	token, err := t.auth.Login(ctx, t.email, t.password)
	if err != nil {
		return "", err
	}
	t.token = token
	t.expires = tokenExpiry(token)
	return token, nil
}

// Invalidate drops the cached token so the next call logs in again. Used
// after the portal answers 401 mid-session.
func (t *TokenSource) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.expires = time.Time{}
	t.mu.Unlock()
}

// tokenExpiry reads the exp claim without verifying the signature: the
// portal signed the token, this side only schedules the re-login. A token
// without a readable exp claim is kept until the portal rejects it.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

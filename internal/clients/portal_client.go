package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"greenhat/internal/models"
)

// PortalClient issues the typed portal calls the dashboards rely on. Every
// mutating call is an opaque command: the portal applies it and the caller
// re-fetches rather than reconciling locally.
type PortalClient struct {
	base   *BaseClient
	tokens *TokenSource
}

// NewPortalClient returns client.
func NewPortalClient(baseURL string, httpClient HTTPDoer, tokens *TokenSource) *PortalClient {
	return &PortalClient{base: NewBaseClient(baseURL, httpClient), tokens: tokens}
}

func (c *PortalClient) get(ctx context.Context, path string, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	status, body, err := c.base.Do(ctx, http.MethodGet, path, nil, authHeaders(token))
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if status != http.StatusOK {
		return &APIError{Status: status, Detail: string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("portal: decode %s: %w", path, err)
	}
	return nil
}

func (c *PortalClient) send(ctx context.Context, method, path string, payload interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}
	status, respBody, err := c.base.Do(ctx, method, path, body, authHeaders(token))
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if status < 200 || status >= 300 {
		return &APIError{Status: status, Detail: string(respBody)}
	}
	return nil
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// FetchSessions lists sessions visible to the signed-in account.
func (c *PortalClient) FetchSessions(ctx context.Context) ([]models.Session, error) {
	var out []models.Session
	if err := c.get(ctx, "/sessions/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchPayments lists payments visible to the signed-in account.
func (c *PortalClient) FetchPayments(ctx context.Context) ([]models.Payment, error) {
	var out []models.Payment
	if err := c.get(ctx, "/payments/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchRouters lists the account's router fleet.
func (c *PortalClient) FetchRouters(ctx context.Context) ([]models.Router, error) {
	var out []models.Router
	if err := c.get(ctx, "/routers/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchBusinesses lists registered businesses. Super-admin scope only; other
// roles get an APIError from the portal.
func (c *PortalClient) FetchBusinesses(ctx context.Context) ([]models.Business, error) {
	var out []models.Business
	if err := c.get(ctx, "/super/businesses/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExtendSession pushes a session's end time forward by the given hours.
func (c *PortalClient) ExtendSession(ctx context.Context, sessionID int64, hours int) error {
	if hours <= 0 {
		hours = 1
	}
	return c.send(ctx, http.MethodPost, "/sessions/extend/", map[string]interface{}{
		"sessionId": sessionID,
		"hours":     hours,
	})
}

// TerminateSession forces a session to ended on the portal.
func (c *PortalClient) TerminateSession(ctx context.Context, sessionID int64) error {
	return c.send(ctx, http.MethodPost, "/sessions/terminate/", map[string]interface{}{"sessionId": sessionID})
}

// ConfirmPayment approves a pending payment.
func (c *PortalClient) ConfirmPayment(ctx context.Context, paymentID int64) error {
	return c.send(ctx, http.MethodPost, "/payment/confirm/", map[string]interface{}{"paymentId": paymentID})
}

// RejectPayment rejects a payment; the portal deletes it from the working
// set.
func (c *PortalClient) RejectPayment(ctx context.Context, paymentID int64) error {
	return c.send(ctx, http.MethodPost, "/payment/reject/", map[string]interface{}{"paymentId": paymentID})
}

// CreateRouter registers a new router. Validation happens before this call.
func (c *PortalClient) CreateRouter(ctx context.Context, router models.Router) error {
	return c.send(ctx, http.MethodPost, "/routers/create/", map[string]interface{}{
		"name":     router.Name,
		"ip":       router.IP,
		"location": router.Location,
		"api_user": router.APIUser,
		"api_pass": router.APIPass,
	})
}

// UpdateRouter replaces a router's settings.
func (c *PortalClient) UpdateRouter(ctx context.Context, router models.Router) error {
	if router.ID == 0 {
		return errors.New("portal: router id required")
	}
	return c.send(ctx, http.MethodPut, "/routers/update/", map[string]interface{}{
		"routerId": router.ID,
		"name":     router.Name,
		"ip":       router.IP,
		"location": router.Location,
		"api_user": router.APIUser,
		"api_pass": router.APIPass,
	})
}

// DeleteRouter removes a router from the fleet.
func (c *PortalClient) DeleteRouter(ctx context.Context, routerID int64) error {
	return c.send(ctx, http.MethodDelete, "/routers/delete/", map[string]interface{}{"routerId": routerID})
}

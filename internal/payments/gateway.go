package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"slotwise/internal/shared/config"
)

// CheckoutRequest asks the gateway to open a hosted payment page
type CheckoutRequest struct {
	Reference     string  `json:"reference"` // our order id, echoed back in webhooks
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Description   string  `json:"description"`
	CustomerEmail string  `json:"customer_email"`
	SuccessURL    string  `json:"success_url"`
	CancelURL     string  `json:"cancel_url"`
}

// CheckoutSession is the gateway's handle for a started payment
type CheckoutSession struct {
	SessionID  string `json:"id"`
	PaymentURL string `json:"url"`
}

// Gateway abstracts the hosted-checkout provider so tests can swap in a fake
type Gateway interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

type httpGateway struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway builds the production gateway client from config
func NewHTTPGateway(cfg *config.PaymentConfig) Gateway {
	return &httpGateway{
		name:    "slotpay",
		baseURL: cfg.GatewayBaseURL,
		apiKey:  cfg.GatewayAPIKey,
		client: &http.Client{
			Timeout: cfg.GatewayTimeout,
		},
	}
}

func (g *httpGateway) Name() string {
	return g.name
}

func (g *httpGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/checkout/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("invalid gateway response: %w", err)
	}
	if session.SessionID == "" || session.PaymentURL == "" {
		return nil, fmt.Errorf("gateway response missing session id or checkout url")
	}

	return &session, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

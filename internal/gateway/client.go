package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ovenlight/checkout/internal/orders/ports"
)

// Client opens orders against the external payment gateway's REST API.
// It holds no local state beyond credentials; every failure maps to
// ports.ErrGatewayUnavailable so callers treat it as retryable.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

// NewClient builds a gateway client. The timeout bounds the whole
// open-order attempt; a timeout is treated the same as any other gateway
// failure.
func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: timeout},
	}
}

type openOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type openOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// OpenOrder creates a gateway order for amount (in the gateway's smallest
// currency subunit) and returns its handle. Single attempt, no retry.
func (c *Client) OpenOrder(ctx context.Context, amount int64, currency, receipt string) (*ports.GatewayOrder, error) {
	body, err := json.Marshal(openOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode gateway order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: gateway returned status %d", ports.ErrGatewayUnavailable, resp.StatusCode)
	}

	var out openOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode gateway response: %v", ports.ErrGatewayUnavailable, err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: gateway response missing order id", ports.ErrGatewayUnavailable)
	}

	return &ports.GatewayOrder{
		ID:       out.ID,
		Amount:   out.Amount,
		Currency: out.Currency,
	}, nil
}

// internal/workers/payments/create-order/gateway.go
package createorder

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	httpclient "primoboost-workers/internal/common/http"
)

var ErrGatewayNotConfigured = errors.New("GATEWAY_NOT_CONFIGURED")

// OrderRequest is the body of a gateway order. Amount is in paise.
type OrderRequest struct {
	Amount   int64                  `json:"amount"`
	Currency string                 `json:"currency"`
	Receipt  string                 `json:"receipt"`
	Notes    map[string]interface{} `json:"notes"`
}

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway creates payment orders. idempotencyKey is the transaction id so a
// retried call never opens a second order for the same transaction.
type Gateway interface {
	CreateOrder(ctx context.Context, idempotencyKey string, req OrderRequest) (*GatewayOrder, error)
	KeyID() string
}

// RazorpayClient talks to the Razorpay orders API with key-pair basic auth.
type RazorpayClient struct {
	client    *httpclient.Client
	baseURL   string
	keyID     string
	keySecret string
}

func NewRazorpayClient(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayClient {
	return &RazorpayClient{
		client:    httpclient.NewClient(timeout),
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
	}
}

func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, idempotencyKey string, req OrderRequest) (*GatewayOrder, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, ErrGatewayNotConfigured
	}

	headers := map[string]string{
		"Authorization":     "Basic " + base64.StdEncoding.EncodeToString([]byte(c.keyID+":"+c.keySecret)),
		"X-Idempotency-Key": idempotencyKey,
	}

	var order GatewayOrder
	if err := c.client.DoJSON(ctx, http.MethodPost, c.baseURL+"/v1/orders", headers, req, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, errors.New("gateway returned an order without id")
	}
	return &order, nil
}

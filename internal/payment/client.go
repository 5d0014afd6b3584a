// Package payment — клиент платёжного шлюза (orders API) и проверка подписи колбэка.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/go-social-shop/internal/config"
	"github.com/pribylovaa/go-social-shop/internal/models"
)

// Client — HTTP-клиент orders API шлюза с basic-auth по key_id/key_secret.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

// New создаёт клиента по секции payment конфигурации.
func New(cfg config.PaymentConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		http:      &http.Client{Timeout: timeout},
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type gatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateIntent создаёт заказ на стороне шлюза: POST {base}/v1/orders.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*models.PaymentIntent, error) {
	const op = "payment/client/CreateIntent"

	if amount <= 0 {
		return nil, fmt.Errorf("%s: amount must be positive, got %d", op, amount)
	}

	body, err := json.Marshal(createOrderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", op, err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: do: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode/100 != 2 {
		var ge gatewayError
		if json.Unmarshal(raw, &ge) == nil && ge.Error.Description != "" {
			return nil, fmt.Errorf("%s: status %d: %s: %s", op, resp.StatusCode, ge.Error.Code, ge.Error.Description)
		}

		return nil, fmt.Errorf("%s: status %d", op, resp.StatusCode)
	}

	var out createOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	if out.ID == "" {
		return nil, fmt.Errorf("%s: empty order id in response", op)
	}

	return &models.PaymentIntent{
		GatewayOrderID: out.ID,
		Amount:         out.Amount,
		Currency:       out.Currency,
	}, nil
}

// Package payment creates Razorpay subscription orders and verifies payment
// signatures returned by the checkout flow.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pointblank/internal/config"
)

const defaultBaseURL = "https://api.razorpay.com"

// ErrVerificationFailed is returned when a payment signature does not match
// the expected HMAC for the order.
var ErrVerificationFailed = errors.New("payment: signature verification failed")

// Order is a payment order as returned by the gateway.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Client talks to the Razorpay orders API.
type Client struct {
	baseURL      string
	keyID        string
	keySecret    string
	planAmount   int64
	planCurrency string
	http         *http.Client
}

// NewClient builds a payment client from config.
func NewClient(cfg config.Razorpay) *Client {
	return &Client{
		baseURL:      defaultBaseURL,
		keyID:        cfg.KeyID,
		keySecret:    cfg.KeySecret,
		planAmount:   cfg.PlanAmount,
		planCurrency: cfg.PlanCurrency,
		http:         &http.Client{Timeout: 15 * time.Second},
	}
}

// KeyID returns the public key the checkout frontend needs.
func (c *Client) KeyID() string { return c.keyID }

// CreateOrder creates a new order for the subscription plan and returns it.
func (c *Client) CreateOrder(ctx context.Context) (*Order, error) {
	payload := map[string]any{
		"amount":   c.planAmount,
		"currency": c.planCurrency,
		"receipt":  "sub_" + uuid.NewString(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment: order creation failed with status %d", resp.StatusCode)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifySignature checks the checkout callback signature. The expected value
// is HMAC-SHA256 over "orderID|paymentID" keyed with the API secret, hex
// encoded. Comparison is constant time.
func (c *Client) VerifySignature(orderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrVerificationFailed
	}
	return nil
}

package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pointblank/internal/config"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(config.Razorpay{
		KeyID:        "rzp_test_key",
		KeySecret:    "secret123",
		PlanAmount:   49900,
		PlanCurrency: "INR",
	})
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" {
			t.Errorf("path = %q, want /v1/orders", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "secret123" {
			t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got := payload["amount"].(float64); got != 49900 {
			t.Errorf("amount = %v, want 49900", got)
		}
		if got := payload["currency"].(string); got != "INR" {
			t.Errorf("currency = %q, want INR", got)
		}
		if receipt := payload["receipt"].(string); !strings.HasPrefix(receipt, "sub_") {
			t.Errorf("receipt = %q, want sub_ prefix", receipt)
		}

		json.NewEncoder(w).Encode(Order{ID: "order_abc", Amount: 49900, Currency: "INR"})
	}))
	defer srv.Close()

	order, err := newTestClient(srv.URL).CreateOrder(context.Background())
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if order.ID != "order_abc" || order.Amount != 49900 || order.Currency != "INR" {
		t.Errorf("order = %+v", order)
	}
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).CreateOrder(context.Background()); err == nil {
		t.Fatal("CreateOrder should report gateway errors")
	}
}

func TestVerifySignature(t *testing.T) {
	c := newTestClient("")

	mac := hmac.New(sha256.New, []byte("secret123"))
	mac.Write([]byte("order_abc|pay_xyz"))
	valid := hex.EncodeToString(mac.Sum(nil))

	if err := c.VerifySignature("order_abc", "pay_xyz", valid); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
	if err := c.VerifySignature("order_abc", "pay_xyz", "deadbeef"); !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("forged signature error = %v, want ErrVerificationFailed", err)
	}
	if err := c.VerifySignature("order_other", "pay_xyz", valid); !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("signature for another order error = %v, want ErrVerificationFailed", err)
	}
}

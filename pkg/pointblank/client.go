// Package pointblank provides a Go SDK for the pointblank-server API.
package pointblank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client calls the pointblank-server API on behalf of one authenticated user.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a new API client. The access token is the user's auth
// token and is sent as a bearer credential on every request.
func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode      int
	Message         string `json:"error"`
	UpgradeRequired bool   `json:"upgradeRequired"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// Analyze generates a fresh report for a ticker. Report generation can take
// minutes; callers should pass a generous context.
func (c *Client) Analyze(ctx context.Context, ticker string) (*StockReport, error) {
	var report StockReport
	err := c.do(ctx, "POST", "/api/analyze", map[string]string{"ticker": ticker}, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Profile retrieves the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, "GET", "/api/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestReport retrieves the most recent stored report for a ticker.
func (c *Client) LatestReport(ctx context.Context, ticker string) (*StockReport, error) {
	var report StockReport
	err := c.do(ctx, "GET", "/api/reports/"+url.PathEscape(ticker), nil, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Chat sends a conversation transcript and returns the assistant's reply.
// The last message must be a user turn.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	var resp struct {
		Reply string `json:"reply"`
	}
	err := c.do(ctx, "POST", "/api/chat", map[string]any{"messages": messages}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Reply, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		json.NewDecoder(resp.Body).Decode(apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

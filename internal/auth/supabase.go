// Package auth verifies end-user access tokens against a Supabase
// authentication service and resolves them to stable user identities.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pointblank/internal/config"
)

const httpTimeout = 10 * time.Second

// ErrUnauthorized is returned when the token is missing, expired, or rejected
// by the auth service.
var ErrUnauthorized = errors.New("auth: invalid or expired token")

// User is the authenticated identity resolved from an access token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Client calls the Supabase auth REST endpoint.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// NewClient builds an auth client from config. The base URL is the project
// URL, e.g. https://xyzcompany.supabase.co.
func NewClient(cfg config.Supabase) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		anonKey: cfg.AnonKey,
		http:    &http.Client{Timeout: httpTimeout},
	}
}

// User resolves an access token to the user it belongs to.
func (c *Client) User(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: unexpected status %d", resp.StatusCode)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, ErrUnauthorized
	}
	return &u, nil
}

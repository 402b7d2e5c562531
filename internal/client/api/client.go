// Package api is a typed HTTP client for the signup and session endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kinboost-api/internal/domain"
)

// Error is a non-2xx response. Message is the server's localized error text.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Client talks to the API at BaseURL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client. A nil hc uses a client with a 15 second timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/send-otp", "", map[string]string{"email": email}, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, email, code string) error {
	return c.do(ctx, http.MethodPost, "/verify-otp", "", map[string]string{"email": email, "code": code}, nil)
}

func (c *Client) CreateAccount(ctx context.Context, email, password string, storeName *string) (*domain.AccountRef, error) {
	var out struct {
		User *domain.AccountRef `json:"user"`
	}
	req := domain.CreateAccountRequest{Email: email, Password: password, StoreName: storeName}
	if err := c.do(ctx, http.MethodPost, "/create-account", "", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	var out domain.AuthSession
	if err := c.do(ctx, http.MethodPost, "/auth/token", "", domain.SignInRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	var out domain.AuthSession
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", accessToken, nil, nil)
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.Account, error) {
	var out struct {
		User *domain.Account `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// MyShop returns the caller's shop, or nil when there is none.
func (c *Client) MyShop(ctx context.Context, accessToken string) (*domain.Shop, error) {
	var out struct {
		Shop *domain.Shop `json:"shop"`
	}
	if err := c.do(ctx, http.MethodGet, "/shops/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out.Shop, nil
}

func (c *Client) CreateShop(ctx context.Context, accessToken, name string, description *string) (*domain.Shop, error) {
	var out struct {
		Shop *domain.Shop `json:"shop"`
	}
	req := domain.CreateShopRequest{Name: name, Description: description}
	if err := c.do(ctx, http.MethodPost, "/shops", accessToken, req, &out); err != nil {
		return nil, err
	}
	return out.Shop, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

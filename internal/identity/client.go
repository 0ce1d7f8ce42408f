// Package identity talks to the external identity provider (GoTrue-compatible REST API).
package identity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/goccy/go-json"
	circuit "github.com/rubyist/circuitbreaker"
)

type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *circuit.Breaker
}

func NewClient(cfg config.IdentityConfig) *Client {
	key := cfg.AnonKey
	if key == "" {
		key = cfg.ServiceKey
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  key,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		breaker: circuit.NewConsecutiveBreaker(cfg.BreakerThreshold),
	}
}

// SignUp creates the account and returns the session. When the provider requires email
// confirmation the session carries only the user.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, error) {
	body := map[string]any{"email": email, "password": password, "data": metadata}
	resp, err := c.do(ctx, http.MethodPost, "/signup", "", body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.status == http.StatusBadRequest || resp.status == http.StatusUnprocessableEntity:
		if strings.Contains(strings.ToLower(resp.message()), "already") {
			return nil, errs.Conflict("user already exists")
		}
		return nil, errs.Validation("%s", resp.message())
	case resp.status >= 400:
		return nil, resp.unexpected("sign up")
	}

	var raw struct {
		Session
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(resp.body, &raw); err != nil {
		return nil, errs.Internal("decode identity response", err)
	}
	s := raw.Session
	if s.User.ID == "" {
		s.User = User{ID: raw.ID, Email: raw.Email}
	}
	return &s, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.grant(ctx, "password", map[string]any{"email": email, "password": password}, "invalid credentials")
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	return c.grant(ctx, "refresh_token", map[string]any{"refresh_token": refreshToken}, "invalid refresh token")
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return err
	}
	if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
		return errs.Unauthorized("invalid token")
	}
	if resp.status >= 400 {
		return resp.unexpected("sign out")
	}
	return nil
}

// GetUser resolves an access token to its user.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden || resp.status == http.StatusNotFound {
		return nil, errs.Unauthorized("invalid token")
	}
	if resp.status >= 400 {
		return nil, resp.unexpected("get user")
	}
	var u User
	if err := json.Unmarshal(resp.body, &u); err != nil {
		return nil, errs.Internal("decode identity response", err)
	}
	return &u, nil
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	resp, err := c.do(ctx, http.MethodPut, "/user", accessToken, map[string]any{"password": password})
	if err != nil {
		return err
	}
	switch {
	case resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden:
		return errs.Unauthorized("invalid token")
	case resp.status == http.StatusBadRequest || resp.status == http.StatusUnprocessableEntity:
		return errs.Validation("%s", resp.message())
	case resp.status >= 400:
		return resp.unexpected("update user")
	}
	return nil
}

func (c *Client) grant(ctx context.Context, grantType string, body map[string]any, rejected string) (*Session, error) {
	resp, err := c.do(ctx, http.MethodPost, "/token?grant_type="+grantType, "", body)
	if err != nil {
		return nil, err
	}
	if resp.status >= 400 && resp.status < 500 {
		return nil, errs.Unauthorized("%s", rejected)
	}
	if resp.status >= 400 {
		return nil, resp.unexpected("token grant")
	}
	var s Session
	if err := json.Unmarshal(resp.body, &s); err != nil {
		return nil, errs.Internal("decode identity response", err)
	}
	return &s, nil
}

type response struct {
	status int
	body   []byte
}

func (r *response) message() string {
	var e struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(r.body, &e)
	for _, m := range []string{e.Msg, e.Message, e.ErrorDescription} {
		if m != "" {
			return m
		}
	}
	return http.StatusText(r.status)
}

func (r *response) unexpected(op string) error {
	return errs.Internal("identity provider error", fmt.Errorf("%s: status %d: %s", op, r.status, r.message()))
}

var errServer = errors.New("identity provider server error")

// do runs one request through the breaker. Only transport failures and 5xx count
// against the breaker; 4xx answers are returned for the caller to classify.
func (c *Client) do(ctx context.Context, method, path, bearer string, body any) (*response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, errs.Internal("encode identity request", err)
		}
	}

	var out *response
	err := c.breaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("apikey", c.apiKey)
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		if err != nil {
			return err
		}
		out = &response{status: res.StatusCode, body: data}
		if res.StatusCode >= 500 {
			return fmt.Errorf("%w: %d", errServer, res.StatusCode)
		}
		return nil
	}, 0)

	switch {
	case errors.Is(err, circuit.ErrBreakerOpen):
		return nil, errs.Internal("identity provider unavailable", err)
	case errors.Is(err, errServer):
		return out, nil
	case err != nil:
		return nil, errs.Internal("identity provider unreachable", err)
	}
	return out, nil
}

// Package api is a typed client for the todokeeper HTTP API. A Client keeps
// the access token returned by Login and sends it as a bearer credential on
// every authenticated call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
)

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient returns a client for the API at baseURL. A non-positive timeout
// disables the per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout < 0 {
		timeout = 0
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) LoggedIn() bool {
	return c.Token() != ""
}

// Ping reports whether the server and its storage are reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", false, nil, nil)
}

func (c *Client) Register(ctx context.Context, email, password string) (*Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodPost, "/register", false, credentials{email, password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for an access token and keeps it for later
// calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/login", false, credentials{email, password}, &out); err != nil {
		return err
	}
	c.SetToken(out.AccessToken)
	return nil
}

// LoginGoogle exchanges a Google ID token for an access token.
func (c *Client) LoginGoogle(ctx context.Context, idToken string) error {
	var out tokenResponse
	body := map[string]string{"token": idToken}
	if err := c.do(ctx, http.MethodPost, "/login/google", false, body, &out); err != nil {
		return err
	}
	c.SetToken(out.AccessToken)
	return nil
}

func (c *Client) Logout() {
	c.SetToken("")
}

func (c *Client) Me(ctx context.Context) (*Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodGet, "/users/me", true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodPut, "/users/profile", true, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccount removes the caller's account and forgets the token.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/users/me", true, nil, nil); err != nil {
		return err
	}
	c.Logout()
	return nil
}

func (c *Client) CreateTask(ctx context.Context, title string, description *string) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPost, "/todos/", true, taskCreate{title, description}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context, skip, limit int) ([]Task, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var out []Task
	if err := c.do(ctx, http.MethodGet, "/todos/?"+q.Encode(), true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int64, upd TaskUpdate) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPut, "/todos/"+strconv.FormatInt(id, 10), true, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodDelete, "/todos/"+strconv.FormatInt(id, 10), true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, in, out any) error {
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
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token := c.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %w", ErrUnavailable, decodeError(resp))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	e := &Error{StatusCode: resp.StatusCode}
	var body struct {
		Detail string `json:"detail"`
		Code   string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		e.Detail, e.Code = body.Detail, body.Code
	}
	return e
}

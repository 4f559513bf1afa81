// Package client is a typed Go client for the ghcrm HTTP API.
// Sessions are carried by the cookie jar, so one Client is one signed-in user.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every API call
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int    `json:"-"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to one ghcrm server
type Client struct {
	http *resty.Client
}

// Option customises a Client
type Option func(*resty.Client)

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithUserAgent sets the User-Agent recorded on sessions
func WithUserAgent(ua string) Option {
	return func(c *resty.Client) { c.SetHeader("User-Agent", ua) }
}

// New creates a Client for the server at baseURL (e.g. http://localhost:3000).
// Requests are never retried.
func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)

	rc := resty.New().
		SetBaseURL(baseURL+"/api/v1").
		SetTimeout(DefaultTimeout).
		SetCookieJar(jar).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	for _, opt := range opts {
		opt(rc)
	}

	return &Client{http: rc}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&APIError{})
}

// check turns transport failures and error statuses into errors
func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}

	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.Status = resp.StatusCode()
	return apiErr
}

// SignUp registers an account and signs the client in
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*User, error) {
	var user User
	resp, err := c.request(ctx).SetBody(req).SetResult(&user).Post("/auth/sign-up")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login signs the client in
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var user User
	resp, err := c.request(ctx).
		SetBody(LoginRequest{Email: email, Password: password}).
		SetResult(&user).
		Post("/auth/login")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the current session; everywhere revokes every other session too
func (c *Client) Logout(ctx context.Context, everywhere bool) error {
	req := c.request(ctx)
	if everywhere {
		req.SetQueryParam("all", "true")
	}
	return check(req.Post("/auth/sign-out"))
}

// Me returns the signed-in user, or nil when the client has no live session
func (c *Client) Me(ctx context.Context) (*User, error) {
	resp, err := c.request(ctx).Get("/auth")
	if err := check(resp, err); err != nil {
		return nil, err
	}

	var user *User
	if err := json.Unmarshal(resp.Body(), &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return user, nil
}

// ListRepositories returns one page of tracked repositories
func (c *Client) ListRepositories(ctx context.Context, params ListParams) (*RepositoryList, error) {
	req := c.request(ctx)
	if params.Page > 0 {
		req.SetQueryParam("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(params.Limit))
	}
	if params.Search != "" {
		req.SetQueryParam("search", params.Search)
	}

	var list RepositoryList
	resp, err := req.SetResult(&list).Get("/repositories")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	if list.Items == nil {
		list.Items = []Repository{}
	}
	return &list, nil
}

// AddRepository starts tracking owner/repo
func (c *Client) AddRepository(ctx context.Context, path string) (*Repository, error) {
	var repo Repository
	resp, err := c.request(ctx).
		SetBody(map[string]string{"path": path}).
		SetResult(&repo).
		Post("/repositories")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &repo, nil
}

// RefreshRepository re-reads the counts of a tracked repository from GitHub
func (c *Client) RefreshRepository(ctx context.Context, id uint) (*Repository, error) {
	var repo Repository
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(id), 10)).
		SetResult(&repo).
		Put("/repositories/{id}/refresh")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &repo, nil
}

// DeleteRepository stops tracking a repository
func (c *Client) DeleteRepository(ctx context.Context, id uint) error {
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(id), 10)).
		Delete("/repositories/{id}")
	if err := check(resp, err); err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return &APIError{Status: resp.StatusCode()}
	}
	return nil
}

// SearchRepositories runs the GitHub typeahead search
func (c *Client) SearchRepositories(ctx context.Context, query string) ([]SearchResult, error) {
	var results []SearchResult
	resp, err := c.request(ctx).
		SetQueryParam("query", query).
		SetResult(&results).
		Get("/repositories/search")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

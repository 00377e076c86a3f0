// Package supabase is a minimal client for the Supabase Auth admin API.
//
// The client holds no session: every request authenticates with the service
// role key it was built with, so one Client is safe to share across goroutines.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	adminUsersPath = "/auth/v1/admin/users"
	userAgent      = "admin-probe"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Initialization errors.
var (
	ErrMissingURL        = errors.New("supabase: service URL is required")
	ErrMissingServiceKey = errors.New("supabase: service role key is required")
	ErrInvalidURL        = errors.New("supabase: service URL must be an absolute http(s) URL")
)

// Config carries the two values a Client needs.
type Config struct {
	URL            string
	ServiceRoleKey string
}

// Client calls the Supabase Auth admin endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient validates cfg and builds a Client. Both values must be non-empty
// after trimming whitespace.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	rawURL := strings.TrimSpace(cfg.URL)
	key := strings.TrimSpace(cfg.ServiceRoleKey)

	var errs []error
	if rawURL == "" {
		errs = append(errs, ErrMissingURL)
	}
	if key == "" {
		errs = append(errs, ErrMissingServiceKey)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(rawURL, "/"),
		key:        key,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// User is the subset of an Auth user record the client decodes.
type User struct {
	ID           string     `json:"id"`
	Aud          string     `json:"aud"`
	Role         string     `json:"role"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at"`
}

// ListUsersParams selects one page of users. Zero values use the server defaults.
type ListUsersParams struct {
	Page    int
	PerPage int
}

// UsersPage is one page of the admin user listing.
type UsersPage struct {
	Users    []User
	Total    int
	NextPage int
}

// APIError is an error reported by the Auth server in a structured response body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type listUsersResponse struct {
	Users []User `json:"users"`
}

// errorResponse covers the body shapes returned by the Auth server across versions.
type errorResponse struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
	ErrorCode        string `json:"error_code"`
	Code             any    `json:"code"`
}

// ListUsers fetches one page of users from the admin API.
func (c *Client) ListUsers(ctx context.Context, params ListUsersParams) (*UsersPage, error) {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(params.PerPage))
	}

	resp, err := c.do(ctx, http.MethodGet, adminUsersPath, q)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp)
	}

	var body listUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding users response: %w", err)
	}
	if body.Users == nil {
		body.Users = []User{}
	}

	total, _ := strconv.Atoi(strings.TrimSpace(resp.Header.Get("X-Total-Count")))
	return &UsersPage{
		Users:    body.Users,
		Total:    total,
		NextPage: nextPage(resp.Header.Get("Link")),
	}, nil
}

// CountUsers returns how many records the first page of size limit holds.
func (c *Client) CountUsers(ctx context.Context, limit int) (int, error) {
	page, err := c.ListUsers(ctx, ListUsersParams{Page: 1, PerPage: limit})
	if err != nil {
		return 0, err
	}
	return len(page.Users), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	return c.httpClient.Do(req)
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorResponse
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		apiErr.Message = firstNonEmpty(body.Msg, body.Message, body.ErrorDescription, body.Error)
		apiErr.Code = body.ErrorCode
		if apiErr.Code == "" {
			if s, ok := body.Code.(string); ok {
				apiErr.Code = s
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// nextPage extracts the page number of the rel="next" link, or 0.
func nextPage(header string) int {
	for raw := range strings.SplitSeq(header, ",") {
		part := strings.TrimSpace(raw)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end <= start {
			continue
		}
		u, err := url.Parse(part[start+1 : end])
		if err != nil {
			continue
		}
		if n, err := strconv.Atoi(u.Query().Get("page")); err == nil {
			return n
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

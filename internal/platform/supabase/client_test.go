package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testKey = "service-role-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{URL: srv.URL, ServiceRoleKey: testKey}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRejectsMissingValues(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantURL bool
		wantKey bool
	}{
		{"both empty", Config{}, true, true},
		{"url empty", Config{ServiceRoleKey: testKey}, true, false},
		{"key empty", Config{URL: "https://abc.supabase.co"}, false, true},
		{"url whitespace", Config{URL: "  \n", ServiceRoleKey: testKey}, true, false},
		{"key whitespace", Config{URL: "https://abc.supabase.co", ServiceRoleKey: "\t"}, false, true},
		{"both whitespace", Config{URL: " ", ServiceRoleKey: " "}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			if err == nil {
				t.Fatalf("expected error, got client %+v", c)
			}
			if c != nil {
				t.Fatalf("expected nil client on error")
			}
			if got := errors.Is(err, ErrMissingURL); got != tt.wantURL {
				t.Fatalf("errors.Is(ErrMissingURL) = %v, want %v (%v)", got, tt.wantURL, err)
			}
			if got := errors.Is(err, ErrMissingServiceKey); got != tt.wantKey {
				t.Fatalf("errors.Is(ErrMissingServiceKey) = %v, want %v (%v)", got, tt.wantKey, err)
			}
		})
	}
}

func TestNewClientRejectsInvalidURL(t *testing.T) {
	for _, raw := range []string{"abc.supabase.co", "ftp://abc.supabase.co", "https://", "://bad"} {
		if _, err := NewClient(Config{URL: raw, ServiceRoleKey: testKey}); !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("NewClient(%q): expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestNewClientTrimsValues(t *testing.T) {
	c, err := NewClient(Config{URL: " https://abc.supabase.co/ ", ServiceRoleKey: " key "}, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.baseURL != "https://abc.supabase.co" {
		t.Fatalf("unexpected base url %q", c.baseURL)
	}
	if c.key != "key" {
		t.Fatalf("unexpected key %q", c.key)
	}
	if c.httpClient.Timeout != time.Second {
		t.Fatalf("expected 1s timeout, got %v", c.httpClient.Timeout)
	}
}

func TestListUsersSendsCredentialsAndLimit(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != adminUsersPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != testKey {
			t.Errorf("unexpected apikey header %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer "+testKey {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "1" {
			t.Errorf("expected per_page=1, got %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Errorf("expected page=1, got %q", got)
		}
		if r.Header.Get("Cookie") != "" {
			t.Errorf("expected no session cookie")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Total-Count", "42")
		w.Header().Set("Link", `</auth/v1/admin/users?page=2&per_page=1>; rel="next", </auth/v1/admin/users?page=42&per_page=1>; rel="last"`)
		_, _ = w.Write([]byte(`{"aud":"authenticated","users":[{"id":"1","email":"a@example.com","role":"authenticated","created_at":"2024-01-15T10:30:00Z"}]}`))
	})

	page, err := c.ListUsers(context.Background(), ListUsersParams{Page: 1, PerPage: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Users) != 1 || page.Users[0].ID != "1" || page.Users[0].Email != "a@example.com" {
		t.Fatalf("unexpected users %+v", page.Users)
	}
	if page.Total != 42 {
		t.Fatalf("expected total 42, got %d", page.Total)
	}
	if page.NextPage != 2 {
		t.Fatalf("expected next page 2, got %d", page.NextPage)
	}

	// A second call authenticates the same way; nothing is carried over.
	if _, err := c.ListUsers(context.Background(), ListUsersParams{Page: 1, PerPage: 1}); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls)
	}
}

func TestCountUsers(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"one user", `{"users":[{"id":"1"}]}`, 1},
		{"no users", `{"users":[]}`, 0},
		{"null users", `{"users":null}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("per_page"); got != "1" {
					t.Errorf("expected per_page=1, got %q", got)
				}
				_, _ = w.Write([]byte(tt.body))
			})
			n, err := c.CountUsers(context.Background(), 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tt.want {
				t.Fatalf("CountUsers = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestListUsersStructuredErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode string
	}{
		{"message", http.StatusInternalServerError, `{"message":"boom"}`, "boom", ""},
		{"msg with code", http.StatusForbidden, `{"code":403,"error_code":"not_admin","msg":"User not allowed"}`, "User not allowed", "not_admin"},
		{"oauth style", http.StatusUnauthorized, `{"error":"invalid_grant","error_description":"Invalid API key"}`, "Invalid API key", ""},
		{"error only", http.StatusBadRequest, `{"error":"bad_request"}`, "bad_request", ""},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down", ""},
		{"empty body", http.StatusServiceUnavailable, "", "Service Unavailable", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.ListUsers(context.Background(), ListUsersParams{PerPage: 1})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T (%v)", err, err)
			}
			if apiErr.Status != tt.status {
				t.Fatalf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Error() != tt.wantMsg {
				t.Fatalf("message = %q, want %q", apiErr.Error(), tt.wantMsg)
			}
			if apiErr.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

func TestListUsersMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"users":`))
	})
	_, err := c.ListUsers(context.Background(), ListUsersParams{PerPage: 1})
	if err == nil {
		t.Fatal("expected decode error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("decode failure must not be an APIError: %v", err)
	}
	if !strings.Contains(err.Error(), "decoding users response") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestListUsersTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c, err := NewClient(Config{URL: srv.URL, ServiceRoleKey: testKey})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.CountUsers(context.Background(), 1)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !strings.HasPrefix(err.Error(), "listing users: ") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestListUsersHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CountUsers(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNextPage(t *testing.T) {
	tests := []struct {
		header string
		want   int
	}{
		{"", 0},
		{`<https://x/auth/v1/admin/users?page=3&per_page=50>; rel="next"`, 3},
		{`<https://x/auth/v1/admin/users?page=9>; rel="last"`, 0},
		{`garbage; rel="next"`, 0},
	}
	for _, tt := range tests {
		if got := nextPage(tt.header); got != tt.want {
			t.Fatalf("nextPage(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}

func TestMockClientTruncatesToLimit(t *testing.T) {
	m := &MockClient{Users: []User{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	n, err := m.CountUsers(context.Background(), 1)
	if err != nil || n != 1 {
		t.Fatalf("CountUsers = %d, %v", n, err)
	}
	if got := m.Limits(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("unexpected limits %v", got)
	}
}

package supabase

import (
	"context"
	"sync"
)

// MockClient stands in for Client in tests. It returns Users truncated to the
// requested limit, or Err, or panics with Panic when set.
type MockClient struct {
	Users []User
	Err   error
	Panic any

	mu     sync.Mutex
	limits []int
}

// CountUsers records limit and returns the configured outcome.
func (m *MockClient) CountUsers(_ context.Context, limit int) (int, error) {
	m.mu.Lock()
	m.limits = append(m.limits, limit)
	m.mu.Unlock()

	if m.Panic != nil {
		panic(m.Panic)
	}
	if m.Err != nil {
		return 0, m.Err
	}
	n := len(m.Users)
	if limit > 0 && n > limit {
		n = limit
	}
	return n, nil
}

// Limits returns the limit passed on every call so far.
func (m *MockClient) Limits() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.limits...)
}

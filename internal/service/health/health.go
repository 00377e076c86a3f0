// Package health probes the administrative user listing and maps the outcome
// to the health endpoint's status code and body.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/admin-probe/internal/platform/logging"
	"github.com/janisto/admin-probe/internal/platform/supabase"
)

// ProbeLimit is the result cap sent with every upstream listing.
const ProbeLimit = 1

// Outcomes reported to an Observer.
const (
	OutcomeOK            = "ok"
	OutcomeUpstreamError = "upstream_error"
	OutcomeException     = "exception"
)

// Lister is the administrative user listing used as the reachability probe.
type Lister interface {
	CountUsers(ctx context.Context, limit int) (int, error)
}

// Observer receives the outcome and latency of each check.
type Observer interface {
	ObserveHealthCheck(outcome string, elapsed time.Duration)
}

// Response is the health endpoint body. Users is set only on success and
// Error only on failure.
type Response struct {
	OK    bool   `json:"ok" doc:"Whether the upstream listing succeeded"`
	Users *int   `json:"users,omitempty" doc:"Number of user records returned (0 or 1)" example:"1"`
	Error string `json:"error,omitempty" doc:"Upstream error message or failure description"`
}

// Evaluate maps a listing result to a status code and body.
func Evaluate(count int, err error) (int, Response) {
	if err != nil {
		return http.StatusInternalServerError, Response{OK: false, Error: err.Error()}
	}
	n := count
	return http.StatusOK, Response{OK: true, Users: &n}
}

// Outcome classifies err for logs and metrics.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		return OutcomeUpstreamError
	}
	return OutcomeException
}

// Checker runs health checks against a shared Lister.
type Checker struct {
	lister   Lister
	observer Observer
}

// Option configures a Checker.
type Option func(*Checker)

// WithObserver reports every check to o.
func WithObserver(o Observer) Option {
	return func(c *Checker) {
		c.observer = o
	}
}

// NewChecker returns a Checker probing lister.
func NewChecker(lister Lister, opts ...Option) *Checker {
	c := &Checker{lister: lister}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check issues one listing capped at ProbeLimit and maps the result. A panic
// in the lister is reported as a failed check.
func (c *Checker) Check(ctx context.Context) (int, Response) {
	start := time.Now()
	count, err := c.probe(ctx)
	elapsed := time.Since(start)

	status, resp := Evaluate(count, err)
	outcome := Outcome(err)
	if err != nil {
		applog.LogError(ctx, "health check failed", err,
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
		)
	} else {
		applog.LogInfo(ctx, "health check", zap.Int("users", count), zap.Duration("elapsed", elapsed))
	}
	if c.observer != nil {
		c.observer.ObserveHealthCheck(outcome, elapsed)
	}
	return status, resp
}

func (c *Checker) probe(ctx context.Context) (count int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	if c.lister == nil {
		return 0, errors.New("health: no user lister configured")
	}
	return c.lister.CountUsers(ctx, ProbeLimit)
}

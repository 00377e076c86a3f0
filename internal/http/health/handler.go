// Package health exposes the health check over plain net/http and over Huma.
package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	applog "github.com/janisto/admin-probe/internal/platform/logging"
	healthsvc "github.com/janisto/admin-probe/internal/service/health"
)

// Path is where both adapters serve the check.
const Path = "/health"

// cacheControl is sent by both adapters.
const cacheControl = "no-store"

// Output is the Huma response wrapper. Status carries 200 or 500.
type Output struct {
	Status       int
	CacheControl string `header:"Cache-Control"`
	Body         healthsvc.Response
}

// Handler serves the check as a plain HTTP handler.
func Handler(checker *healthsvc.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := checker.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", cacheControl)
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			applog.LogError(r.Context(), "failed to write health response", err)
		}
	}
}

// Register adds GET /health to api.
func Register(api huma.API, checker *healthsvc.Checker) {
	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        Path,
		Summary:     "Check upstream reachability",
		Description: "Lists at most one user through the admin API and reports whether the call succeeded.",
		Tags:        []string{"health"},
	}, func(ctx context.Context, _ *struct{}) (*Output, error) {
		status, body := checker.Check(ctx)
		return &Output{Status: status, CacheControl: cacheControl, Body: body}, nil
	})
}

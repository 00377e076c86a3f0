package health

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/admin-probe/internal/platform/logging"
)

// DatabasePath serves the auxiliary pool check.
const DatabasePath = "/health/db"

// Pinger runs a trivial query against the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseResponse is the body of the database check.
type DatabaseResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DatabaseOutput is the Huma response wrapper for the database check.
type DatabaseOutput struct {
	Status       int
	CacheControl string `header:"Cache-Control"`
	Body         DatabaseResponse
}

// RegisterDatabase adds GET /health/db to api.
func RegisterDatabase(api huma.API, db Pinger) {
	huma.Register(api, huma.Operation{
		OperationID: "get-health-db",
		Method:      http.MethodGet,
		Path:        DatabasePath,
		Summary:     "Check database connectivity",
		Tags:        []string{"health"},
	}, func(ctx context.Context, _ *struct{}) (*DatabaseOutput, error) {
		if err := db.Ping(ctx); err != nil {
			applog.LogError(ctx, "database check failed", err, zap.String("path", DatabasePath))
			return &DatabaseOutput{
				Status:       http.StatusInternalServerError,
				CacheControl: cacheControl,
				Body:         DatabaseResponse{OK: false, Error: err.Error()},
			}, nil
		}
		return &DatabaseOutput{Status: http.StatusOK, CacheControl: cacheControl, Body: DatabaseResponse{OK: true}}, nil
	})
}

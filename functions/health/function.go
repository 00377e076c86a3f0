// Package health serves the health check as an HTTP Cloud Function.
package health

import (
	"context"
	"net/http"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/janisto/admin-probe/internal/config"
	healthhttp "github.com/janisto/admin-probe/internal/http/health"
	"github.com/janisto/admin-probe/internal/platform/provider"
	healthsvc "github.com/janisto/admin-probe/internal/service/health"
)

// handler is built once at load time and shared by every invocation.
var handler http.HandlerFunc

// init panics on a bad environment so a misconfigured deployment never
// becomes ready to serve.
func init() {
	h, err := newHandler(context.Background())
	if err != nil {
		panic(err)
	}
	handler = h
	functions.HTTP("Health", handler)
}

func newHandler(ctx context.Context) (http.HandlerFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	lister, err := provider.NewLister(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return healthhttp.Handler(healthsvc.NewChecker(lister)), nil
}

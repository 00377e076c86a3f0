// Package routes builds the Huma API and wires every route into it.
package routes

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"

	healthhttp "github.com/janisto/admin-probe/internal/http/health"
	healthsvc "github.com/janisto/admin-probe/internal/service/health"
)

// DocsPath serves the interactive API reference.
const DocsPath = "/api-docs"

// Deps are the shared handles routes depend on. DB is optional.
type Deps struct {
	Checker *healthsvc.Checker
	DB      healthhttp.Pinger
}

// NewAPI mounts a Huma API on router. Schema links are disabled so response
// bodies carry exactly the documented fields.
func NewAPI(router chi.Router, version string) huma.API {
	cfg := huma.DefaultConfig("Admin Probe API", version)
	cfg.DocsPath = DocsPath
	cfg.CreateHooks = nil
	api := humachi.New(router, cfg)

	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)
	return api
}

// Register wires all routes into api.
func Register(api huma.API, deps Deps) {
	healthhttp.Register(api, deps.Checker)
	if deps.DB != nil {
		healthhttp.RegisterDatabase(api, deps.DB)
	}
}

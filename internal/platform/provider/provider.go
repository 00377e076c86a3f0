// Package provider builds the user lister for the configured backend.
package provider

import (
	"context"
	"fmt"

	"github.com/janisto/admin-probe/internal/config"
	"github.com/janisto/admin-probe/internal/platform/firebase"
	"github.com/janisto/admin-probe/internal/platform/supabase"
	healthsvc "github.com/janisto/admin-probe/internal/service/health"
)

// NewLister builds the process-wide user lister selected by cfg.Provider.
func NewLister(ctx context.Context, cfg *config.Config) (healthsvc.Lister, error) {
	switch cfg.Provider {
	case config.ProviderSupabase:
		client, err := supabase.NewClient(
			supabase.Config{URL: cfg.SupabaseURL, ServiceRoleKey: cfg.ServiceRoleKey},
			supabase.WithTimeout(cfg.UpstreamTimeout),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderFirebase:
		clients, err := firebase.InitializeClients(ctx, firebase.Config{
			ProjectID:                    cfg.FirebaseProjectID,
			GoogleApplicationCredentials: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		return firebase.NewUserLister(clients.Auth), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

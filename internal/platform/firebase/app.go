// Package firebase wires the Firebase Admin SDK as an alternative source for
// the administrative user listing.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrMissingProjectID is returned when Config.ProjectID is blank.
var ErrMissingProjectID = errors.New("firebase: project ID is required")

// Config holds Firebase configuration.
type Config struct {
	ProjectID                    string
	GoogleApplicationCredentials string // path to a service account JSON file, optional
}

// Clients holds initialized Firebase clients.
type Clients struct {
	Auth *auth.Client
}

// InitializeClients builds the Admin SDK app and its Auth client.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, ErrMissingProjectID
	}

	var opts []option.ClientOption
	if path := strings.TrimSpace(cfg.GoogleApplicationCredentials); path != "" {
		creds, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firebase app: %w", err)
	}
	ac, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating auth client: %w", err)
	}
	return &Clients{Auth: ac}, nil
}

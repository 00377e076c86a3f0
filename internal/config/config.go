// Package config loads process configuration from the environment and optional .env files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Providers for the administrative user listing.
const (
	ProviderSupabase = "supabase"
	ProviderFirebase = "firebase"
)

// Environment variable names.
const (
	EnvSupabaseURL       = "NEXT_PUBLIC_SUPABASE_URL"
	EnvSupabaseURLAlt    = "SUPABASE_URL"
	EnvServiceRoleKey    = "SUPABASE_SERVICE_ROLE_KEY"
	EnvDatabaseURL       = "SUPABASE_DB_URL"
	EnvProvider          = "HEALTH_PROVIDER"
	EnvFirebaseProjectID = "FIREBASE_PROJECT_ID"
	EnvCredentialsFile   = "GOOGLE_APPLICATION_CREDENTIALS"
)

// ErrInvalid is matched by every configuration error returned from Load and Validate.
var ErrInvalid = errors.New("invalid configuration")

// Error lists the missing or malformed settings.
type Error struct {
	Missing []string
	Reason  string
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return "config: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalid) hold for every *Error.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// Config holds runtime configuration.
type Config struct {
	AppEnv string
	Port   string

	Provider string

	// Supabase
	SupabaseURL    string
	ServiceRoleKey string
	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32

	// Firebase
	FirebaseProjectID string
	CredentialsFile   string

	UpstreamTimeout time.Duration
	CORSOrigins     []string
}

// Load reads .env and .env.{APP_ENV} when present, then the process environment,
// and validates the result. Values already set in the environment always win.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	v := newViper()
	if env := strings.TrimSpace(v.GetString("app_env")); env != "" {
		_ = godotenv.Load(".env." + strings.ToLower(env))
	}
	return fromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("app_env", "local")
	v.SetDefault("port", "8080")
	v.SetDefault("provider", ProviderSupabase)
	v.SetDefault("upstream_timeout", 10*time.Second)
	v.SetDefault("db_max_conns", 4)
	v.SetDefault("db_min_conns", 0)
	v.SetDefault("cors_origins", "*")

	_ = v.BindEnv("app_env", "APP_ENV")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("provider", EnvProvider)
	_ = v.BindEnv("supabase_url", EnvSupabaseURL)
	_ = v.BindEnv("supabase_url_alt", EnvSupabaseURLAlt)
	_ = v.BindEnv("service_role_key", EnvServiceRoleKey)
	_ = v.BindEnv("database_url", EnvDatabaseURL)
	_ = v.BindEnv("db_max_conns", "DB_MAX_CONNS")
	_ = v.BindEnv("db_min_conns", "DB_MIN_CONNS")
	_ = v.BindEnv("firebase_project_id", EnvFirebaseProjectID)
	_ = v.BindEnv("credentials_file", EnvCredentialsFile)
	_ = v.BindEnv("upstream_timeout", "UPSTREAM_TIMEOUT")
	_ = v.BindEnv("cors_origins", "CORS_ORIGINS")
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	var bad []string
	timeout, err := cast.ToDurationE(trimmed(v.Get("upstream_timeout")))
	if err != nil {
		bad = append(bad, fmt.Sprintf("UPSTREAM_TIMEOUT: %v", err))
	}
	maxConns, err := cast.ToInt32E(trimmed(v.Get("db_max_conns")))
	if err != nil {
		bad = append(bad, fmt.Sprintf("DB_MAX_CONNS: %v", err))
	}
	minConns, err := cast.ToInt32E(trimmed(v.Get("db_min_conns")))
	if err != nil {
		bad = append(bad, fmt.Sprintf("DB_MIN_CONNS: %v", err))
	}
	if len(bad) > 0 {
		return nil, &Error{Reason: strings.Join(bad, "; ")}
	}

	cfg := &Config{
		AppEnv:            strings.ToLower(strings.TrimSpace(v.GetString("app_env"))),
		Port:              strings.TrimSpace(v.GetString("port")),
		Provider:          strings.ToLower(strings.TrimSpace(v.GetString("provider"))),
		SupabaseURL:       firstNonBlank(v.GetString("supabase_url"), v.GetString("supabase_url_alt")),
		ServiceRoleKey:    strings.TrimSpace(v.GetString("service_role_key")),
		DatabaseURL:       strings.TrimSpace(v.GetString("database_url")),
		DBMaxConns:        maxConns,
		DBMinConns:        minConns,
		FirebaseProjectID: strings.TrimSpace(v.GetString("firebase_project_id")),
		CredentialsFile:   strings.TrimSpace(v.GetString("credentials_file")),
		UpstreamTimeout:   timeout,
		CORSOrigins:       splitCSV(v.GetString("cors_origins")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// trimmed strips surrounding whitespace from string values read from the environment.
func trimmed(val any) any {
	if s, ok := val.(string); ok {
		return strings.TrimSpace(s)
	}
	return val
}

// firstNonBlank returns the first value that is non-empty after trimming.
func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks the settings required by the selected provider.
func (c *Config) Validate() error {
	var missing []string
	switch c.Provider {
	case ProviderSupabase:
		if strings.TrimSpace(c.SupabaseURL) == "" {
			missing = append(missing, EnvSupabaseURL)
		}
		if strings.TrimSpace(c.ServiceRoleKey) == "" {
			missing = append(missing, EnvServiceRoleKey)
		}
	case ProviderFirebase:
		if strings.TrimSpace(c.FirebaseProjectID) == "" {
			missing = append(missing, EnvFirebaseProjectID)
		}
	default:
		return &Error{Reason: fmt.Sprintf("unknown %s %q", EnvProvider, c.Provider)}
	}
	if len(missing) > 0 {
		return &Error{Missing: missing}
	}
	if c.UpstreamTimeout <= 0 {
		return &Error{Reason: fmt.Sprintf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout)}
	}
	if c.DBMaxConns < 0 || c.DBMinConns < 0 {
		return &Error{Reason: fmt.Sprintf("pool sizes must not be negative, got DB_MAX_CONNS=%d DB_MIN_CONNS=%d", c.DBMaxConns, c.DBMinConns)}
	}
	if c.DBMinConns > c.DBMaxConns {
		return &Error{Reason: fmt.Sprintf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)}
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

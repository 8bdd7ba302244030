// Package config centralizes startup configuration. All environment reads
// happen here, once; components receive values through the Config struct and
// never consult ambient state themselves.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jun/formdesk/internal/secret"
)

// Default SSM parameter names. In dev mode the EnvResolver maps these to
// JWT_SECRET, ORIGIN_SECRET, GOOGLE_CLIENT_SECRET and DRIVE_REFRESH_TOKEN.
const (
	jwtSecretParam          = "/formdesk/jwt-secret"
	originSecretParam       = "/formdesk/origin-secret"
	googleClientSecretParam = "/formdesk/google-client-secret"
	driveRefreshTokenParam  = "/formdesk/drive-refresh-token"
)

// DriveConfig configures the Google Drive document archive, the cloud store
// used by the persistence variant.
type DriveConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	RefreshToken string
	BaseFolder   string
}

// Config holds every runtime setting the application needs.
type Config struct {
	DevMode     bool
	FrontendURL string

	AccountsTable  string
	DocumentsTable string
	KMSKeyID       string

	JWTSecret    string
	OriginSecret string

	// AllowedEmailDomains restricts registration and password sign-in.
	// Empty means any domain is accepted.
	AllowedEmailDomains []string

	SessionTTL          time.Duration
	AnonymousSessionTTL time.Duration
	HistoryLimit        int

	Drive DriveConfig
}

// Load reads the environment and the secret resolver exactly once and
// returns a validated Config. devMode is passed in by the caller, which
// needs it before Load runs to pick the resolver.
func Load(ctx context.Context, resolver secret.Resolver, devMode bool) (*Config, error) {
	cfg := &Config{
		DevMode:             devMode,
		FrontendURL:         envOr("FRONTEND_URL", "http://localhost:3000"),
		AccountsTable:       envOr("ACCOUNTS_TABLE", "Accounts"),
		DocumentsTable:      envOr("DOCUMENTS_TABLE", "SavedDocuments"),
		KMSKeyID:            envOr("KMS_KEY_ID", "alias/formdesk-credential-key"),
		SessionTTL:          24 * time.Hour,
		AnonymousSessionTTL: 1 * time.Hour,
		HistoryLimit:        10,
	}

	if domains := os.Getenv("ALLOWED_EMAIL_DOMAINS"); domains != "" {
		for _, d := range strings.Split(domains, ",") {
			d = strings.TrimSpace(strings.ToLower(d))
			if d != "" {
				cfg.AllowedEmailDomains = append(cfg.AllowedEmailDomains, d)
			}
		}
	}

	if limit := os.Getenv("HISTORY_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid HISTORY_LIMIT %q: %w", limit, err)
		}
		cfg.HistoryLimit = n
	}

	jwtSecret, err := resolver.GetSecret(ctx, jwtSecretParam)
	if err != nil {
		if !cfg.DevMode {
			return nil, fmt.Errorf("resolve jwt secret: %w", err)
		}
		jwtSecret = "default-dev-secret"
	}
	cfg.JWTSecret = jwtSecret

	// Origin verification is only enforced in production; a missing secret
	// in dev mode is fine.
	if originSecret, err := resolver.GetSecret(ctx, originSecretParam); err == nil {
		cfg.OriginSecret = originSecret
	} else if !cfg.DevMode {
		return nil, fmt.Errorf("resolve origin secret: %w", err)
	}

	cfg.Drive = DriveConfig{
		Enabled:    os.Getenv("DRIVE_ARCHIVE_ENABLED") == "true",
		ClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
		BaseFolder: envOr("DRIVE_BASE_FOLDER", "FormDesk"),
	}
	if cfg.Drive.Enabled {
		if cfg.Drive.ClientSecret, err = resolver.GetSecret(ctx, googleClientSecretParam); err != nil {
			return nil, fmt.Errorf("resolve google client secret: %w", err)
		}
		if cfg.Drive.RefreshToken, err = resolver.GetSecret(ctx, driveRefreshTokenParam); err != nil {
			return nil, fmt.Errorf("resolve drive refresh token: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as runtime
// failures deep inside a handler.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must not be empty")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit)
	}
	if c.AccountsTable == "" || c.DocumentsTable == "" {
		return fmt.Errorf("table names must not be empty")
	}
	if c.Drive.Enabled {
		if c.Drive.ClientID == "" || c.Drive.ClientSecret == "" || c.Drive.RefreshToken == "" {
			return fmt.Errorf("drive archive enabled but oauth credentials are incomplete")
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

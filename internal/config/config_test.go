package config

import (
	"context"
	"testing"
)

func TestLoad_DevDefaults(t *testing.T) {
	t.Setenv("ALLOWED_EMAIL_DOMAINS", "Example.org, corp.example.com")

	cfg, err := Load(context.Background(), noSecrets{}, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.DevMode {
		t.Error("expected DevMode true")
	}
	if cfg.JWTSecret != "default-dev-secret" {
		t.Errorf("expected dev fallback jwt secret, got %q", cfg.JWTSecret)
	}
	if cfg.AccountsTable != "Accounts" || cfg.DocumentsTable != "SavedDocuments" {
		t.Errorf("unexpected table defaults: %q %q", cfg.AccountsTable, cfg.DocumentsTable)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("expected history limit 10, got %d", cfg.HistoryLimit)
	}
	if len(cfg.AllowedEmailDomains) != 2 || cfg.AllowedEmailDomains[0] != "example.org" {
		t.Errorf("unexpected domains: %v", cfg.AllowedEmailDomains)
	}
}

func TestLoad_ProdRequiresJWTSecret(t *testing.T) {
	if _, err := Load(context.Background(), noSecrets{}, false); err == nil {
		t.Fatal("expected error when jwt secret cannot be resolved in prod")
	}
}

func TestLoad_InvalidHistoryLimit(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "ten")

	if _, err := Load(context.Background(), noSecrets{}, true); err == nil {
		t.Fatal("expected error for non-numeric HISTORY_LIMIT")
	}
}

func TestValidate_DriveIncomplete(t *testing.T) {
	cfg := &Config{
		JWTSecret:      "s",
		HistoryLimit:   10,
		AccountsTable:  "a",
		DocumentsTable: "d",
		Drive:          DriveConfig{Enabled: true},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for incomplete drive credentials")
	}
}

type noSecrets struct{}

func (noSecrets) GetSecret(_ context.Context, name string) (string, error) {
	return "", errNoSecret(name)
}

type errNoSecret string

func (e errNoSecret) Error() string { return "no secret: " + string(e) }

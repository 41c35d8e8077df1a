package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(PathEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.HTTP.Port)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr())
	}
	if cfg.Auth.SessionTTL != 168*time.Hour {
		t.Errorf("SessionTTL = %s, want 168h", cfg.Auth.SessionTTL)
	}
	if cfg.Terminal.SupportEmail != "support@cloudbyte.com" {
		t.Errorf("SupportEmail = %q", cfg.Terminal.SupportEmail)
	}
	if cfg.Database.Path != "cloudbyte.db" {
		t.Errorf("Database.Path = %q, want cloudbyte.db", cfg.Database.Path)
	}
	if cfg.Auth.SecureCookie {
		t.Error("SecureCookie should default to false outside production")
	}
	if cfg.HTTP.TrustProxyHeaders {
		t.Error("proxy headers should not be trusted by default")
	}
}

func TestLoadGeneratesSecret(t *testing.T) {
	t.Setenv(PathEnv, "")
	t.Setenv("CLOUDBYTE_JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.GeneratedSecret {
		t.Error("expected GeneratedSecret = true")
	}
	if len(cfg.Auth.JWTSecret) != 64 {
		t.Errorf("secret length = %d, want 64 hex chars", len(cfg.Auth.JWTSecret))
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(PathEnv, "")
	t.Setenv("CLOUDBYTE_PORT", "9090")
	t.Setenv("CLOUDBYTE_BASE_URL", "https://cloudbyte.example/")
	t.Setenv("CLOUDBYTE_JWT_SECRET", "s3cret")
	t.Setenv("CLOUDBYTE_SESSION_TTL", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.HTTP.Port)
	}
	if cfg.HTTP.BaseURL != "https://cloudbyte.example" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.HTTP.BaseURL)
	}
	if cfg.Auth.JWTSecret != "s3cret" || cfg.GeneratedSecret {
		t.Errorf("JWTSecret = %q, GeneratedSecret = %v", cfg.Auth.JWTSecret, cfg.GeneratedSecret)
	}
	if cfg.Auth.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %s, want 2h", cfg.Auth.SessionTTL)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloudbyte.yaml")
	yaml := `env: production
http:
  port: "7000"
log:
  format: json
terminal:
  ssh_host: deploy.cloudbyte.example
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(PathEnv, path)
	t.Setenv("CLOUDBYTE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("expected production env from file")
	}
	if !cfg.Auth.SecureCookie {
		t.Error("expected secure cookies in production")
	}
	if cfg.HTTP.Port != "7000" {
		t.Errorf("Port = %q, want 7000", cfg.HTTP.Port)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want env override debug", cfg.Log.Level)
	}
	if cfg.Terminal.SSHHost != "deploy.cloudbyte.example" {
		t.Errorf("SSHHost = %q", cfg.Terminal.SSHHost)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(PathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

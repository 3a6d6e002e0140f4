package config

import (
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8080/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if got := cfg.Cart.DebounceWindow; got != 500*time.Millisecond {
		t.Fatalf("expected default debounce 500ms, got %v", got)
	}
	if got := cfg.Checkout.AuthRedirectDelay; got != 2*time.Second {
		t.Fatalf("expected default redirect delay 2s, got %v", got)
	}
	if cfg.Redis.Enabled() {
		t.Fatal("redis should be disabled without url or address")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDebounce, "250ms")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Cart.DebounceWindow != 250*time.Millisecond {
		t.Fatalf("unexpected debounce %v", cfg.Cart.DebounceWindow)
	}
	if !cfg.Redis.Enabled() {
		t.Fatal("expected redis enabled")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "localhost:8080", "http://"} {
		t.Setenv(EnvAPIBaseURL, raw)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for base url %q", raw)
		}
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "dev")
	t.Setenv(EnvAPIBaseURL, "http://localhost:8080/api/")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}

func TestJWTExpiration(t *testing.T) {
	if got := (JWTConfig{ExpirationMinutes: 30}).Expiration(); got != 30*time.Minute {
		t.Fatalf("unexpected expiration %v", got)
	}
	if got := (JWTConfig{}).Expiration(); got != 0 {
		t.Fatalf("expected zero expiration, got %v", got)
	}
}

func TestLoadServer_IgnoresBaseURL(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")
	t.Setenv(EnvDevAPIPort, "9090")
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.DevAPI.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.DevAPI.Port)
	}
	if cfg.DevAPI.CookieName == "" {
		t.Fatal("expected a default session cookie name")
	}
}

func TestLoadServer_RequiresSecret(t *testing.T) {
	t.Setenv(EnvJWTSecret, " ")
	if _, err := LoadServer(); err == nil {
		t.Fatal("expected blank jwt secret to fail")
	}
}

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if cfg.EndpointAddr != ":8080" {
		t.Errorf("EndpointAddr = %q, want :8080", cfg.EndpointAddr)
	}
	if cfg.RefreshTokenValidityDuration != 30*24*time.Hour {
		t.Errorf("RefreshTokenValidityDuration = %v, want 720h", cfg.RefreshTokenValidityDuration)
	}
	if cfg.AccessTokenReissueThreshold >= cfg.AccessTokenValidityDuration {
		t.Errorf("reissue threshold %v must be below access validity %v",
			cfg.AccessTokenReissueThreshold, cfg.AccessTokenValidityDuration)
	}
	if cfg.SignupCodeTTL != 5*time.Minute || cfg.ResetPasswordCodeTTL != 5*time.Minute {
		t.Errorf("code TTLs = %v/%v, want 5m/5m", cfg.SignupCodeTTL, cfg.ResetPasswordCodeTTL)
	}
}

func TestParseEnvOverlay(t *testing.T) {
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("ACCESS_TOKEN_VALIDITY", "12m")
	t.Setenv("RATELIMIT_MAX_REQUESTS", "9")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	if cfg.SecretKey != "from-env" {
		t.Errorf("SecretKey = %q, want from-env", cfg.SecretKey)
	}
	if cfg.AccessTokenValidityDuration != 12*time.Minute {
		t.Errorf("AccessTokenValidityDuration = %v, want 12m", cfg.AccessTokenValidityDuration)
	}
	if cfg.RateLimitMaxRequests != 9 {
		t.Errorf("RateLimitMaxRequests = %d, want 9", cfg.RateLimitMaxRequests)
	}
	// untouched field keeps its default
	if cfg.EndpointAddr != ":8080" {
		t.Errorf("EndpointAddr = %q, want :8080", cfg.EndpointAddr)
	}
}

func TestJsonConfigDurations(t *testing.T) {
	raw := `{
		"database_dsn": "postgres://u@h/db",
		"access_token_validity": "45m",
		"signup_code_ttl": "300s",
		"ratelimit_max_requests": 3
	}`

	c := &JsonConfig{}
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if c.DatabaseDSN != "postgres://u@h/db" {
		t.Errorf("DatabaseDSN = %q", c.DatabaseDSN)
	}
	if c.AccessTokenValidityDuration.Duration != 45*time.Minute {
		t.Errorf("AccessTokenValidityDuration = %v, want 45m", c.AccessTokenValidityDuration.Duration)
	}
	if c.SignupCodeTTL.Duration != 5*time.Minute {
		t.Errorf("SignupCodeTTL = %v, want 5m", c.SignupCodeTTL.Duration)
	}
	if c.RateLimitMaxRequests == nil || *c.RateLimitMaxRequests != 3 {
		t.Errorf("RateLimitMaxRequests = %v, want 3", c.RateLimitMaxRequests)
	}
}

func TestParseJsonOverlayFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	if err := os.WriteFile(path, []byte(`{"secret_key":"from-json","refresh_token_validity":"24h"}`), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	oldArgs := os.Args
	os.Args = []string{"test", "-c", path}
	defer func() { os.Args = oldArgs }()

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	if cfg.SecretKey != "from-json" {
		t.Errorf("SecretKey = %q, want from-json", cfg.SecretKey)
	}
	if cfg.RefreshTokenValidityDuration != 24*time.Hour {
		t.Errorf("RefreshTokenValidityDuration = %v, want 24h", cfg.RefreshTokenValidityDuration)
	}
}

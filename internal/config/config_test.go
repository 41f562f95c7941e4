package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App: AppConfig{Env: "local", Port: 3000},
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Vapi.BaseURL != defaultVapiBaseURL {
		t.Fatalf("expected default base url, got %q", c.Vapi.BaseURL)
	}
	if c.Store.Backend != "memory" {
		t.Fatalf("expected memory store default, got %q", c.Store.Backend)
	}
	if c.App.Version != defaultVersion {
		t.Fatalf("expected default version, got %q", c.App.Version)
	}
	if c.App.Location == nil {
		t.Fatalf("expected location")
	}
	if c.Vapi.VoiceID != "paula" || c.Vapi.Model != "gpt-3.5-turbo" {
		t.Fatalf("unexpected assistant defaults: %+v", c.Vapi)
	}
}

func TestValidate_RejectsBadEnvAndPort(t *testing.T) {
	c := Config{App: AppConfig{Env: "prod", Port: 0}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_PostgresRequiresDB(t *testing.T) {
	c := validConfig()
	c.Store.Backend = "postgres"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for postgres without DB_HOST")
	}
}

func TestValidate_PostgresLocalDefaultsSSLMode(t *testing.T) {
	c := validConfig()
	c.Store.Backend = "postgres"
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "voice"}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.Store.Backend = "postgres"
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "voice"}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	c := validConfig()
	c.Store.Backend = "mongo"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestValidate_AuthDefaultsTTL(t *testing.T) {
	c := validConfig()
	c.Auth.JWTSecret = "secret"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Auth.AccessTokenTTL != 12*time.Hour {
		t.Fatalf("expected default ttl, got %v", c.Auth.AccessTokenTTL)
	}
}

func TestDemoMode(t *testing.T) {
	c := validConfig()
	if !c.DemoMode() {
		t.Fatalf("expected demo mode without credentials")
	}
	c.Vapi.APIKey = "key"
	c.Vapi.PhoneNumberID = "pn"
	if c.DemoMode() {
		t.Fatalf("expected real mode with credentials")
	}
}

func TestLoad_ReadsEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "8081")
	t.Setenv("VAPI_BASE_URL", "http://vapi.local/")
	t.Setenv("CALLS_REFRESH_INTERVAL", "0s")
	t.Setenv("STORE_BACKEND", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.Port != 8081 || c.App.Env != "dev" {
		t.Fatalf("unexpected app config: %+v", c.App)
	}
	if c.Vapi.BaseURL != "http://vapi.local" {
		t.Fatalf("expected trailing slash trimmed, got %q", c.Vapi.BaseURL)
	}
	if c.Calls.RefreshInterval != 0 {
		t.Fatalf("expected refresh disabled, got %v", c.Calls.RefreshInterval)
	}
}

func TestLoad_ReportsParseErrors(t *testing.T) {
	t.Setenv("APP_PORT", "abc")
	t.Setenv("CALL_POLL_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadDotEnv_DoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("VOICE_TEST_A=from-file\nVOICE_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("VOICE_TEST_A", "from-env")
	t.Setenv("VOICE_TEST_B", "")
	os.Unsetenv("VOICE_TEST_B")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("VOICE_TEST_A"); got != "from-env" {
		t.Fatalf("expected env to win, got %q", got)
	}
	if got := os.Getenv("VOICE_TEST_B"); got != "from-file" {
		t.Fatalf("expected file value, got %q", got)
	}
}

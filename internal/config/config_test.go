package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the default store dir at a temp dir so no user config.yaml
// leaks into the test
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix+"_") {
			t.Setenv(strings.SplitN(kv, "=", 2)[0], "")
		}
	}
	return filepath.Join(dir, "ridectl")
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("Expected APIURL %s, got %s", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.Store != StoreFile {
		t.Errorf("Expected store file, got %s", cfg.Store)
	}
	if cfg.StoreDir != dir {
		t.Errorf("Expected store dir %s, got %s", dir, cfg.StoreDir)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.SignInPath != "/login" || cfg.HomePath != "/" || cfg.UnauthorizedPath != "/unauthorized" {
		t.Errorf("Unexpected paths: %q %q %q", cfg.SignInPath, cfg.HomePath, cfg.UnauthorizedPath)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level warn, got %s", cfg.LogLevel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("RIDECTL_API_URL", "api.example.com/")
	t.Setenv("RIDECTL_STORE", "REDIS")
	t.Setenv("RIDECTL_REDIS_ADDR", "localhost:6379")
	t.Setenv("RIDECTL_REQUEST_TIMEOUT", "5s")
	t.Setenv("RIDECTL_LOG_LEVEL", "DEBUG")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "http://api.example.com" {
		t.Errorf("Expected normalized API URL, got %s", cfg.APIURL)
	}
	if cfg.Store != StoreRedis || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected redis store at localhost:6379, got %s %s", cfg.Store, cfg.RedisAddr)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug, got %s", cfg.LogLevel)
	}
}

func TestLoad_SetValueBeatsEnv(t *testing.T) {
	isolate(t)
	t.Setenv("RIDECTL_API_URL", "http://from-env:1")

	v := New()
	v.Set(KeyAPIURL, "http://from-flag:2")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.APIURL != "http://from-flag:2" {
		t.Errorf("Expected flag value, got %s", cfg.APIURL)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	yaml := "api_url: https://rides.example.com\nstore: memory\nrate_limit: 0\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.APIURL != "https://rides.example.com" {
		t.Errorf("Expected file API URL, got %s", cfg.APIURL)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("Expected memory store, got %s", cfg.Store)
	}
	if cfg.RateLimit != 0 {
		t.Errorf("Expected rate limit disabled, got %g", cfg.RateLimit)
	}
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	isolate(t)
	v := New()
	v.Set(KeyConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(v); err == nil {
		t.Error("Expected error for missing explicit config file, got nil")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"bad scheme", KeyAPIURL, "ftp://example.com", "http or https"},
		{"unknown store", KeyStore, "sqlite", "store must be one of"},
		{"redis without addr", KeyStore, StoreRedis, "redis_addr is required"},
		{"zero timeout", KeyRequestTimeout, "0s", "must be positive"},
		{"negative rate", KeyRateLimit, -1, "must not be negative"},
		{"relative sign-in", KeySignInPath, "login", "absolute path"},
		{"bad log level", KeyLogLevel, "verbose", "log_level"},
		{"bad log format", KeyLogFormat, "xml", "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			v := New()
			v.Set(tt.key, tt.val)

			_, err := Load(v)
			if err == nil {
				t.Fatalf("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("RIDECTL_HOME_PATH=/dashboard\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("RIDECTL_HOME_PATH") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.HomePath != "/dashboard" {
		t.Errorf("Expected /dashboard, got %s", cfg.HomePath)
	}
}

func TestLoadDotEnv_MissingIsFine(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("Expected no error for missing file, got %v", err)
	}
}

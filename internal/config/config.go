// ABOUTME: Configuration loader for ridectl
// ABOUTME: Layers flags, RIDECTL_* environment, .env and config.yaml over defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/markalston/ridectl/internal/store"
)

// EnvPrefix is prepended to every environment variable key
const EnvPrefix = "RIDECTL"

// Session store backends
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config keys
const (
	KeyConfigFile       = "config"
	KeyAPIURL           = "api_url"
	KeyRequestTimeout   = "request_timeout"
	KeyRateLimit        = "rate_limit"
	KeyRateBurst        = "rate_burst"
	KeyStore            = "store"
	KeyStoreDir         = "store_dir"
	KeyRedisAddr        = "redis_addr"
	KeyRedisPassword    = "redis_password"
	KeyRedisDB          = "redis_db"
	KeyRedisPrefix      = "redis_prefix"
	KeySignInPath       = "sign_in_path"
	KeyHomePath         = "home_path"
	KeyUnauthorizedPath = "unauthorized_path"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
)

const DefaultAPIURL = "http://localhost:8080"

type Config struct {
	// Backend
	APIURL         string
	RequestTimeout time.Duration
	RateLimit      float64 // requests per second, 0 disables
	RateBurst      int

	// Session store
	Store         string // file, redis, memory (default: file)
	StoreDir      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Navigation targets
	SignInPath       string
	HomePath         string
	UnauthorizedPath string

	// Logging
	LogLevel  string
	LogFormat string
}

// New returns a viper instance reading RIDECTL_* variables with defaults set
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default for every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyRequestTimeout, 30*time.Second)
	v.SetDefault(KeyRateLimit, 10.0)
	v.SetDefault(KeyRateBurst, 10)
	v.SetDefault(KeyStore, StoreFile)
	v.SetDefault(KeyStoreDir, store.DefaultDir())
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyRedisPrefix, "ridectl:")
	v.SetDefault(KeySignInPath, "/login")
	v.SetDefault(KeyHomePath, "/")
	v.SetDefault(KeyUnauthorizedPath, "/unauthorized")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")
}

// LoadDotEnv loads a .env file into the process environment. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the optional config file and builds a validated Config from v
func Load(v *viper.Viper) (*Config, error) {
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:         ensureScheme(strings.TrimRight(strings.TrimSpace(v.GetString(KeyAPIURL)), "/")),
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		RateLimit:      v.GetFloat64(KeyRateLimit),
		RateBurst:      v.GetInt(KeyRateBurst),

		Store:         strings.ToLower(v.GetString(KeyStore)),
		StoreDir:      v.GetString(KeyStoreDir),
		RedisAddr:     v.GetString(KeyRedisAddr),
		RedisPassword: v.GetString(KeyRedisPassword),
		RedisDB:       v.GetInt(KeyRedisDB),
		RedisPrefix:   v.GetString(KeyRedisPrefix),

		SignInPath:       v.GetString(KeySignInPath),
		HomePath:         v.GetString(KeyHomePath),
		UnauthorizedPath: v.GetString(KeyUnauthorizedPath),

		LogLevel:  strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat: strings.ToLower(v.GetString(KeyLogFormat)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field requirements
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%s is required", KeyAPIURL)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%s is not a valid URL: %q", KeyAPIURL, c.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", KeyAPIURL, u.Scheme)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyRequestTimeout, c.RequestTimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%s must not be negative, got %g", KeyRateLimit, c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("%s must be at least 1 when %s is set, got %d", KeyRateBurst, KeyRateLimit, c.RateBurst)
	}

	switch c.Store {
	case StoreFile:
		if c.StoreDir == "" {
			return fmt.Errorf("%s is required for the file store", KeyStoreDir)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%s is required for the redis store", KeyRedisAddr)
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("%s must not be negative, got %d", KeyRedisDB, c.RedisDB)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%s must be one of file, redis, memory, got %q", KeyStore, c.Store)
	}

	for _, p := range []struct {
		name  string
		value string
	}{
		{KeySignInPath, c.SignInPath},
		{KeyHomePath, c.HomePath},
		{KeyUnauthorizedPath, c.UnauthorizedPath},
	} {
		if !strings.HasPrefix(p.value, "/") {
			return fmt.Errorf("%s must be an absolute path, got %q", p.name, p.value)
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%s must be one of debug, info, warn, error, got %q", KeyLogLevel, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, c.LogFormat)
	}
	return nil
}

// readConfigFile merges an explicit --config file, or config.yaml from the
// store directory when present
func readConfigFile(v *viper.Viper) error {
	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString(KeyStoreDir))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// ensureScheme adds http:// prefix if the URL has no scheme
func ensureScheme(raw string) string {
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		return "http://" + raw
	}
	return raw
}

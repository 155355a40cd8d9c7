package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the file read when no --config flag is given.
const ConfigPath = "config.yaml"

// Development fallbacks. validateConfig refuses them in production.
const (
	DevJWTSecret     = "super_secret_cat_key_123"
	DevSessionSecret = "super_secret_session_key_456"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                       string   `yaml:"port"`
	DatabaseURL                string   `yaml:"databaseURL"`
	JWTSecret                  string   `yaml:"jwtSecret"`
	SessionSecret              string   `yaml:"sessionSecret"`
	Production                 bool     `yaml:"production"`
	LogLevel                   string   `yaml:"logLevel"`
	PublicDir                  string   `yaml:"publicDir"`
	TokenTTL                   string   `yaml:"tokenTTL"`
	SessionTTL                 string   `yaml:"sessionTTL"`
	RedisAddr                  string   `yaml:"redisAddr"`
	RedisPassword              string   `yaml:"redisPassword"`
	RegisterRateLimitPerMinute int      `yaml:"registerRateLimitPerMinute"`
	LoginRateLimitPerMinute    int      `yaml:"loginRateLimitPerMinute"`
	ProtectCatalog             bool     `yaml:"protectCatalog"`
	RevokeTokensOnLogout       bool     `yaml:"revokeTokensOnLogout"`
	TrustedOrigins             []string `yaml:"trustedOrigins"`
	TrustedProxies             []string `yaml:"trustedProxies"`
}

// Defaults returns the configuration used when neither file nor env set a key.
func Defaults() FileConfig {
	return FileConfig{
		Port:                       "3000",
		JWTSecret:                  DevJWTSecret,
		SessionSecret:              DevSessionSecret,
		LogLevel:                   "info",
		PublicDir:                  "public",
		TokenTTL:                   "1h",
		SessionTTL:                 "24h",
		RegisterRateLimitPerMinute: 10,
		LoginRateLimitPerMinute:    20,
	}
}

// Load reads config from path (defaults to config.yaml), then applies env
// overrides and validates. A missing default file is not an error.
func Load(path string) (FileConfig, error) {
	cfg := Defaults()
	explicit := path != ""
	if !explicit {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if os.Getenv("NODE_ENV") == "production" || os.Getenv("APP_ENV") == "production" {
		cfg.Production = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PUBLIC_DIR"); v != "" {
		cfg.PublicDir = v
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		cfg.TokenTTL = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		cfg.SessionTTL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("GALLERY_REGISTER_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RegisterRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("GALLERY_LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("PROTECT_CATALOG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ProtectCatalog = b
		}
	}
	if v := os.Getenv("REVOKE_TOKENS_ON_LOGOUT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RevokeTokensOnLogout = b
		}
	}
	if v := os.Getenv("TRUSTED_ORIGINS"); v != "" {
		cfg.TrustedOrigins = splitList(v)
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitList(v)
	}
}

func validateConfig(cfg FileConfig) error {
	port, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("config: invalid port %q", cfg.Port)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("config: jwtSecret is required (set JWT_SECRET)")
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return errors.New("config: sessionSecret is required (set SESSION_SECRET)")
	}
	if cfg.Production {
		if cfg.JWTSecret == DevJWTSecret || cfg.SessionSecret == DevSessionSecret {
			return errors.New("config: development secrets are not allowed in production")
		}
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("config: databaseURL is required in production (set DATABASE_URL)")
		}
	}
	if cfg.RegisterRateLimitPerMinute < 0 || cfg.LoginRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if _, err := ParseTokenTTL(cfg.TokenTTL); err != nil {
		return err
	}
	if _, err := ParseSessionTTL(cfg.SessionTTL); err != nil {
		return err
	}
	return nil
}

// Addr returns the listen address for Port.
func (c FileConfig) Addr() string {
	return ":" + strings.TrimSpace(c.Port)
}

// ParseTokenTTL parses the optional token lifetime. Empty means the default.
func ParseTokenTTL(ttlStr string) (time.Duration, error) {
	return parseTTL("tokenTTL", ttlStr)
}

// ParseSessionTTL parses the optional session lifetime. Empty means the default.
func ParseSessionTTL(ttlStr string) (time.Duration, error) {
	return parseTTL("sessionTTL", ttlStr)
}

func parseTTL(name, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", name, err)
	}
	if dur < 0 {
		return 0, fmt.Errorf("invalid %s duration: must not be negative", name)
	}
	return dur, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

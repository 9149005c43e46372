package server

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/smis/sso"
)

const envPrefix = "SSO_"

// AppConfig defines application configuration loaded from files and environment.
type AppConfig struct {
	Env          string             `koanf:"env"`
	HTTP         HTTPConfig         `koanf:"http"`
	Database     DatabaseConfig     `koanf:"database"`
	Auth         AuthConfig         `koanf:"auth"`
	RefreshStore RefreshStoreConfig `koanf:"refresh_store"`
	Registry     RegistryConfig     `koanf:"registry"`
	RateLimit    RateLimitConfig    `koanf:"ratelimit"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

type AuthConfig struct {
	JWTSecret     string        `koanf:"jwt_secret"`
	AccessTTL     time.Duration `koanf:"access_ttl"`
	RefreshTTL    time.Duration `koanf:"refresh_ttl"`
	RefreshCookie string        `koanf:"refresh_cookie"`
	CookieSecure  *bool         `koanf:"cookie_secure"`
}

// RefreshStoreConfig selects the refresh token backend: memory, buntdb or valkey.
type RefreshStoreConfig struct {
	Driver        string        `koanf:"driver"`
	Path          string        `koanf:"path"`
	Addr          string        `koanf:"addr"`
	Prefix        string        `koanf:"prefix"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

type RegistryConfig struct {
	CacheSize *int          `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

type RateLimitConfig struct {
	LoginPerSecond float64 `koanf:"login_per_second"`
	LoginBurst     int     `koanf:"login_burst"`
}

var (
	cfgOnce sync.Once
	cfgInst *AppConfig
)

// GetConfig loads and returns the singleton AppConfig. Loading order:
// 1) config/config.yaml (optional)
// 2) config/config.<APP_ENV>.yaml (optional), APP_ENV defaults to "local"
// 3) Environment variables with prefix SSO_ mapped using __ as nested separator, e.g. SSO_AUTH__JWT_SECRET
func GetConfig() *AppConfig {
	cfgOnce.Do(func() {
		cfgInst = LoadConfig()
	})
	return cfgInst
}

// LoadConfig reads the configuration without caching it.
func LoadConfig() *AppConfig {
	k := koanf.New(".")
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}
	// files are opt-in to keep tests isolated
	loadFiles := strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "1") || strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "true")
	envName := os.Getenv("APP_ENV")
	if envName == "" {
		envName = "local"
	}
	if loadFiles {
		for _, name := range []string{"config.yaml", "config." + envName + ".yaml"} {
			path := filepath.Join(configDir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				log.Printf("config: failed loading %s: %v", name, err)
			}
		}
	}
	// SSO_AUTH__JWT_SECRET -> auth.jwt_secret
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		log.Printf("config: failed loading env: %v", err)
	}

	var c AppConfig
	if err := k.Unmarshal("", &c); err != nil {
		log.Printf("config: unmarshal error: %v", err)
	}
	if c.Env == "" {
		c.Env = envName
	}
	c.applyDefaults()
	return &c
}

func (c *AppConfig) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":3000"
	}
	if c.Auth.AccessTTL <= 0 {
		c.Auth.AccessTTL = sso.AccessTokenTTL
	}
	if c.Auth.RefreshTTL <= 0 {
		c.Auth.RefreshTTL = sso.RefreshTokenTTL
	}
	if c.Auth.RefreshCookie == "" {
		c.Auth.RefreshCookie = "smis_refresh_token"
	}
	if c.RefreshStore.Driver == "" {
		c.RefreshStore.Driver = "memory"
	}
	c.RefreshStore.Driver = strings.ToLower(c.RefreshStore.Driver)
	if c.RefreshStore.Path == "" {
		c.RefreshStore.Path = "refresh_tokens.db"
	}
	if c.RefreshStore.Addr == "" {
		c.RefreshStore.Addr = "127.0.0.1:6379"
	}
	if c.RefreshStore.Prefix == "" {
		c.RefreshStore.Prefix = "sso:"
	}
	if c.RefreshStore.SweepInterval <= 0 {
		c.RefreshStore.SweepInterval = 10 * time.Minute
	}
	if c.Registry.CacheSize == nil {
		size := 256
		c.Registry.CacheSize = &size
	}
	if c.Registry.CacheTTL <= 0 {
		c.Registry.CacheTTL = time.Minute
	}
	if c.RateLimit.LoginPerSecond <= 0 {
		c.RateLimit.LoginPerSecond = 5
	}
	if c.RateLimit.LoginBurst <= 0 {
		c.RateLimit.LoginBurst = 10
	}
}

// DatabaseDSN returns the effective DSN (config first, then DATABASE_DSN, then MIGRATE_DSN).
func (c *AppConfig) DatabaseDSN() string {
	if c != nil && c.Database.DSN != "" {
		return strings.TrimSpace(c.Database.DSN)
	}
	dsn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("MIGRATE_DSN"))
	}
	return dsn
}

// JWTSecret returns the signing secret (config first, then JWT_SECRET).
func (c *AppConfig) JWTSecret() string {
	if c != nil && c.Auth.JWTSecret != "" {
		return c.Auth.JWTSecret
	}
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return s
	}
	return "smis-jwt-secret"
}

// SecureCookies reports whether the refresh cookie carries the Secure flag.
// Defaults to true outside the local environment.
func (c *AppConfig) SecureCookies() bool {
	if c.Auth.CookieSecure != nil {
		return *c.Auth.CookieSecure
	}
	return c.Env != "local"
}

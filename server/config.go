package server

import (
	"errors"
	"time"

	"github.com/smis/sso"
)

// ErrDatabaseDSNNotSet is returned when no database DSN is configured.
var ErrDatabaseDSNNotSet = errors.New("database DSN is not set (SSO_DATABASE__DSN, DATABASE_DSN or MIGRATE_DSN)")

// AppKeyHeader names the application an authorization check is made for.
const AppKeyHeader = "X-SMIS-App-Key"

// Config configuration parameters
type Config struct {
	RefreshCookie string        // refresh token cookie name
	CookieSecure  bool          // set the Secure flag on the refresh cookie
	CookiePath    string        // refresh cookie path
	RefreshTTL    time.Duration // refresh cookie Max-Age
	// login rate limiting, per client IP
	LoginRate  float64
	LoginBurst int
}

// NewConfig create to configuration instance
func NewConfig() *Config {
	return &Config{
		RefreshCookie: "smis_refresh_token",
		CookieSecure:  true,
		CookiePath:    "/",
		RefreshTTL:    sso.RefreshTokenTTL,
		LoginRate:     5,
		LoginBurst:    10,
	}
}

// NewConfigFromApp derives the transport configuration from the loaded AppConfig.
func NewConfigFromApp(app *AppConfig) *Config {
	cfg := NewConfig()
	if app == nil {
		return cfg
	}
	cfg.RefreshCookie = app.Auth.RefreshCookie
	cfg.CookieSecure = app.SecureCookies()
	cfg.RefreshTTL = app.Auth.RefreshTTL
	cfg.LoginRate = app.RateLimit.LoginPerSecond
	cfg.LoginBurst = app.RateLimit.LoginBurst
	return cfg
}

package manage

import (
	"time"

	"github.com/smis/sso"
)

// Config session lifetime parameters. The access token lifetime belongs to
// the mapped AccessGenerate.
type Config struct {
	// refresh token expiration time, extended on every refresh
	RefreshTokenExp time.Duration
}

// DefaultConfig is used when no config is set
var DefaultConfig = &Config{
	RefreshTokenExp: sso.RefreshTokenTTL,
}

package generates

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

var _ sso.AccessGenerate = (*JWTAccessGenerate)(nil)

// AccessClaims jwt claims
type AccessClaims struct {
	jwt.RegisteredClaims
	Username    string   `json:"username"`
	AppKey      string   `json:"appKey"`
	Roles       []string `json:"roles"`       // Always include, even if empty
	Permissions []string `json:"permissions"` // Always include, even if empty
}

// Validate runs after the registered claims checks during parsing.
func (a *AccessClaims) Validate() error {
	if a.Subject == "" || a.AppKey == "" {
		return errors.ErrInvalidOrExpiredToken
	}
	return nil
}

// NewJWTAccessGenerate create to generate the jwt access token instance
func NewJWTAccessGenerate(kid string, key []byte, method jwt.SigningMethod) *JWTAccessGenerate {
	return &JWTAccessGenerate{
		SignedKeyID:  kid,
		SignedKey:    key,
		SignedMethod: method,
		ExpiresIn:    sso.AccessTokenTTL,
		Clock:        clock.WallClock,
	}
}

// JWTAccessGenerate generate the jwt access token
type JWTAccessGenerate struct {
	SignedKeyID  string
	SignedKey    []byte
	SignedMethod jwt.SigningMethod
	ExpiresIn    time.Duration
	Clock        clock.Clock
}

func (a *JWTAccessGenerate) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock.Now()
}

// Token signs data with an expiry of ExpiresIn from now.
func (a *JWTAccessGenerate) Token(ctx context.Context, data *models.AccessTokenPayload) (string, time.Time, error) {
	now := a.now()
	ttl := a.ExpiresIn
	if ttl <= 0 {
		ttl = sso.AccessTokenTTL
	}
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        models.LegitID(),
			Subject:   data.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username:    data.Username,
		AppKey:      data.AppKey,
		Roles:       nonNil(data.Roles),
		Permissions: nonNil(data.Permissions),
	}

	token := jwt.NewWithClaims(a.SignedMethod, claims)
	if a.SignedKeyID != "" {
		token.Header["kid"] = a.SignedKeyID
	}
	key, err := a.signKey()
	if err != nil {
		return "", time.Time{}, errors.Infrastructure("sign access token", err)
	}
	access, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, errors.Infrastructure("sign access token", err)
	}
	return access, claims.ExpiresAt.Time, nil
}

// Parse verifies access against the configured method and key.
func (a *JWTAccessGenerate) Parse(ctx context.Context, access string) (*models.AccessTokenPayload, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(access, claims, func(t *jwt.Token) (interface{}, error) {
		return a.verifyKey()
	},
		jwt.WithValidMethods([]string{a.SignedMethod.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.ErrInvalidOrExpiredToken
	}
	return &models.AccessTokenPayload{
		UserID:      claims.Subject,
		Username:    claims.Username,
		AppKey:      claims.AppKey,
		Roles:       nonNil(claims.Roles),
		Permissions: nonNil(claims.Permissions),
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func (a *JWTAccessGenerate) signKey() (interface{}, error) {
	switch {
	case a.isEs():
		return jwt.ParseECPrivateKeyFromPEM(a.SignedKey)
	case a.isRsOrPS():
		return jwt.ParseRSAPrivateKeyFromPEM(a.SignedKey)
	case a.isHs():
		return a.SignedKey, nil
	case a.isEd():
		return jwt.ParseEdPrivateKeyFromPEM(a.SignedKey)
	}
	return nil, fmt.Errorf("unsupported sign method %s", a.SignedMethod.Alg())
}

// verifyKey derives the public half of the signing key.
func (a *JWTAccessGenerate) verifyKey() (interface{}, error) {
	switch {
	case a.isEs():
		v, err := jwt.ParseECPrivateKeyFromPEM(a.SignedKey)
		if err != nil {
			return nil, err
		}
		return &v.PublicKey, nil
	case a.isRsOrPS():
		v, err := jwt.ParseRSAPrivateKeyFromPEM(a.SignedKey)
		if err != nil {
			return nil, err
		}
		return &v.PublicKey, nil
	case a.isHs():
		return a.SignedKey, nil
	case a.isEd():
		v, err := jwt.ParseEdPrivateKeyFromPEM(a.SignedKey)
		if err != nil {
			return nil, err
		}
		priv, ok := v.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("unexpected ed key type %T", v)
		}
		return priv.Public(), nil
	}
	return nil, fmt.Errorf("unsupported sign method %s", a.SignedMethod.Alg())
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (a *JWTAccessGenerate) isEs() bool {
	return strings.HasPrefix(a.SignedMethod.Alg(), "ES")
}

func (a *JWTAccessGenerate) isRsOrPS() bool {
	isRs := strings.HasPrefix(a.SignedMethod.Alg(), "RS")
	isPs := strings.HasPrefix(a.SignedMethod.Alg(), "PS")
	return isRs || isPs
}

func (a *JWTAccessGenerate) isHs() bool { return strings.HasPrefix(a.SignedMethod.Alg(), "HS") }
func (a *JWTAccessGenerate) isEd() bool { return strings.HasPrefix(a.SignedMethod.Alg(), "Ed") }

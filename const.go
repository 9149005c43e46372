// Package sso is the authorization/session core of the single-sign-on gateway.
//
// Applications send their users here to authenticate; the gateway answers with a
// short-lived signed access token carrying the user's roles and permissions for
// that application, plus a long-lived opaque refresh token bound to the same
// (user, application) pair.
package sso

import "time"

const (
	// AccessTokenTTL is the lifetime of a signed access token.
	AccessTokenTTL = 15 * time.Minute
	// RefreshTokenTTL is the lifetime of a refresh token, renewed on every touch.
	RefreshTokenTTL = 30 * 24 * time.Hour
	// MaxApplicationKeyLength bounds application keys.
	MaxApplicationKeyLength = 64
)

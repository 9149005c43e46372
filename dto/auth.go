package dto

// LoginRequest represents a password login for an application.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	AppKey   string `json:"appKey" binding:"required"`
}

// RefreshRequest carries a refresh token in the body; the cookie is used when empty.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	AppKey       string `json:"appKey"`
}

// LogoutRequest carries the refresh token to revoke; the cookie is used when empty.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// GeneratedKeyResponse is returned by the key generator endpoint.
type GeneratedKeyResponse struct {
	Key string `json:"key"`
}

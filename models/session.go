package models

import (
	"encoding/json"
	"time"
)

// isoMillis matches the ISO-8601 shape SDK clients parse.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// RefreshTokenRecord is what a refresh token resolves to.
type RefreshTokenRecord struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	AppKey    string    `json:"appKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the record is no longer usable at now.
func (r *RefreshTokenRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Session is handed to callers after login, refresh or probe.
// ExpiresAt is the access token's absolute expiry.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresAt    string `json:"expiresAt"`
	}{s.AccessToken, s.RefreshToken, s.ExpiresAt.UTC().Format(isoMillis)})
}

// Authorizations is the flat role/permission view for one user in one application.
type Authorizations struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// DepartmentAuthorizations holds the grants nested under one department.
type DepartmentAuthorizations struct {
	Department  *Department `json:"department"`
	Roles       []string    `json:"roles"`
	Permissions []string    `json:"permissions"`
	Degrees     []string    `json:"degrees"`
}

// BranchAuthorizations groups departments under a branch. Branch is nil for
// the implicit branch used when an employee has no branch assignment.
type BranchAuthorizations struct {
	Branch      *Branch                    `json:"branch"`
	Departments []DepartmentAuthorizations `json:"departments"`
}

// ContextualAuthorizations is the branch/department scoped view of a user's grants.
type ContextualAuthorizations struct {
	EmployeeID *int64                 `json:"employeeId"`
	Branches   []BranchAuthorizations `json:"branches"`
}

// AccessTokenPayload is what a signed access token carries. UserID is the
// decimal user id and becomes the token subject.
type AccessTokenPayload struct {
	UserID      string    `json:"sub"`
	Username    string    `json:"username"`
	AppKey      string    `json:"appKey"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	ExpiresAt   time.Time `json:"-"`
}

package models

import "time"

// LoginRequest holds credentials forwarded to the student/admin service.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the upstream-issued bearer token with decoded identity.
type LoginResponse struct {
	Token     string     `json:"token"`
	User      UserInfo   `json:"user"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// UserInfo describes the authenticated console user.
type UserInfo struct {
	ID      string   `json:"id"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	IsAdmin bool     `json:"is_admin"`
}

// Session is the authenticated caller: the raw bearer token forwarded upstream
// plus the claims decoded from it.
type Session struct {
	Token     string
	User      UserInfo
	ExpiresAt *time.Time
}

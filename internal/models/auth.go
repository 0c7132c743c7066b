package models

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only privileged role; the product has a single shared
// admin credential, not per-user accounts.
const RoleAdmin = "admin"

// AdminClaims are embedded in issued session tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest carries the shared admin password.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued session token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DevTokenRequest asks for a signed token for an identity (non-production only).
type DevTokenRequest struct {
	UserID string `json:"userId" validate:"required,max=64"`
	Role   string `json:"role" validate:"required"`
}

// TokenResponse returns an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int64     `json:"expiresIn"`
	Identity    Identity  `json:"identity"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Identity projects the claims onto the core identity.
func (c *JWTClaims) Identity() Identity {
	return Identity{ID: c.UserID, Role: c.Role}
}
